package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmalache/chuo/core/grade"
)

func TestGradeAPI(t *testing.T) {
	app := initApp(t)
	ctx := context.Background()

	fac := app.createFaculty(t, "Prof X", "profx@test.cd", "")
	other := app.createFaculty(t, "Prof Y", "profy@test.cd", "")
	alice := app.createStudent(t, "Alice", "alice@test.cd", true)

	dept := app.createDepartment(t, "Computer Science", "CS")
	crs := app.createCourse(t, dept.ID, fac.ID, 10)
	require.NoError(t, app.courseSvc.Enroll(ctx, crs.ID, alice.ID))

	facToken := getToken(t, fac.Account)
	otherToken := getToken(t, other.Account)
	aliceToken := getToken(t, alice.Account)

	gradeBody := []byte(fmt.Sprintf(
		`{"student_id": %q, "year": 1, "semester": 1, "letter": "A", "marks_obtained": 88, "total_marks": 100}`,
		alice.ID))

	var grd grade.Grade

	t.Run("record", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/grades", otherToken, gradeBody)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: grade.ErrNotOwner.Error()}),
		}, rec)

		req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/grades", facToken, gradeBody)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grd))
		assert.Equal(t, grade.StatusDraft, grd.Status)
		assert.Equal(t, 9.0, grd.GradePoints)
	})

	t.Run("draft hidden from student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+alice.ID+"/grades", aliceToken)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var views []grade.GradeView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
		assert.Empty(t, views)
	})

	t.Run("publish and finalize", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/grades/"+grd.ID+"/publish", facToken)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodPost, "/v1/grades/"+grd.ID+"/finalize", facToken)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var finalized grade.Grade
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &finalized))
		assert.Equal(t, grade.StatusFinalized, finalized.Status)
	})

	t.Run("student sees published grades with course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+alice.ID+"/grades", aliceToken)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var views []grade.GradeView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
		require.Len(t, views, 1)
		require.NotNil(t, views[0].Course)
		assert.Equal(t, crs.Code, views[0].Course.Code)
	})

	t.Run("gpa", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: []byte(`{"gpa": 9}`)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+alice.ID+"/gpa", aliceToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("result pdf", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+alice.ID+"/result/pdf", aliceToken)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.NotEmpty(t, rec.Body.Bytes())
	})

	t.Run("result is self or faculty", func(t *testing.T) {
		bob := app.createStudent(t, "Bob", "bob@test.cd", true)
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+alice.ID+"/result", getToken(t, bob.Account))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
