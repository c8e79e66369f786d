package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmalache/chuo/core/course"
)

func TestCourseAPI_enrollment(t *testing.T) {
	app := initApp(t)

	admin := app.createAdmin(t, "Root", "root@test.cd")
	fac := app.createFaculty(t, "Prof X", "profx@test.cd", "")
	alice := app.createStudent(t, "Alice", "alice@test.cd", true)
	bob := app.createStudent(t, "Bob", "bob@test.cd", true)

	dept := app.createDepartment(t, "Computer Science", "CS")
	crs := app.createCourse(t, dept.ID, fac.ID, 1 /* maxStudents */)

	adminToken := getToken(t, admin.Account)
	facToken := getToken(t, fac.Account)
	aliceToken := getToken(t, alice.Account)

	enrollBody := func(studentID string) []byte {
		return []byte(fmt.Sprintf(`{"student_id": %q}`, studentID))
	}

	tests := []httpTest{
		{
			name: "enroll is admin only", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll",
			body: enrollBody(alice.ID), token: facToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "enroll", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll",
			body: enrollBody(alice.ID), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, SuccessResponse{Success: "student enrolled"}),
		},
		{
			name: "duplicate enrollment", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll",
			body: enrollBody(alice.ID), token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: course.ErrAlreadyEnrolled.Error()}),
		},
		{
			name: "course full", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll",
			body: enrollBody(bob.ID), token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: course.ErrCourseFull.Error()}),
		},
		{
			name: "unknown course", method: http.MethodPost, path: "/v1/courses/nope/enroll",
			body: enrollBody(alice.ID), token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()}),
		},
		{
			name: "roster is faculty only", method: http.MethodGet, path: "/v1/courses/" + crs.ID + "/roster",
			token:    aliceToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "roster", method: http.MethodGet, path: "/v1/courses/" + crs.ID + "/roster",
			token:    facToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, course.StudentRef{ID: alice.ID, Name: alice.Name}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("student sees own courses", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+alice.ID+"/courses", aliceToken)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var courses []course.Course
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &courses))
		require.Len(t, courses, 1)
		assert.Equal(t, crs.ID, courses[0].ID)
	})

	t.Run("course detail expands projections", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID, aliceToken)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var detail course.CourseDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
		require.NotNil(t, detail.Department)
		assert.Equal(t, dept.ID, detail.Department.ID)
		require.NotNil(t, detail.Faculty)
		assert.Equal(t, fac.ID, detail.Faculty.ID)
		require.Len(t, detail.Students, 1)
	})
}

func TestCourseAPI_materials(t *testing.T) {
	app := initApp(t)

	owner := app.createFaculty(t, "Prof X", "profx@test.cd", "")
	other := app.createFaculty(t, "Prof Y", "profy@test.cd", "")
	dept := app.createDepartment(t, "Computer Science", "CS")
	crs := app.createCourse(t, dept.ID, owner.ID, 10)

	ownerToken := getToken(t, owner.Account)
	otherToken := getToken(t, other.Account)

	body := []byte(`{"title": "Week 1 notes", "file_url": "https://files.test.cd/w1.pdf"}`)

	t.Run("only the owning faculty can add", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/materials", otherToken, body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: course.ErrNotOwner.Error()}),
		}, rec)
	})

	var mat course.CourseMaterial

	t.Run("add", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/materials", ownerToken, body)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mat))
		assert.Equal(t, owner.ID, mat.UploadedBy)
	})

	t.Run("list is open to authenticated users", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/materials", otherToken)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var mats []course.CourseMaterial
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mats))
		assert.Len(t, mats, 1)
	})

	t.Run("delete checks ownership", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/materials/"+mat.ID, otherToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodDelete, "/v1/materials/"+mat.ID, ownerToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
