package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmalache/chuo/core/attendance"
)

func TestAttendanceAPI_delete(t *testing.T) {
	app := initApp(t)
	ctx := context.Background()

	admin := app.createAdmin(t, "Root", "root@test.cd")
	fac := app.createFaculty(t, "Prof X", "profx@test.cd", "")
	alice := app.createStudent(t, "Alice", "alice@test.cd", true)

	dept := app.createDepartment(t, "Computer Science", "CS")
	crs := app.createCourse(t, dept.ID, fac.ID, 10)
	require.NoError(t, app.courseSvc.Enroll(ctx, crs.ID, alice.ID))

	ma := attendance.MarkAttendance{StudentID: alice.ID, Date: "2026-03-02", Status: attendance.StatusAbsent}
	require.NoError(t, ma.Validate())
	rec, err := app.attendanceSvc.Mark(ctx, crs.ID, fac.ID, ma)
	require.NoError(t, err)

	t.Run("delete is admin only", func(t *testing.T) {
		req, rc := newAuthRequest(http.MethodDelete, "/v1/attendance/"+rec.ID, getToken(t, fac.Account))
		app.server.ServeHTTP(rc, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rc)
	})

	t.Run("delete as admin", func(t *testing.T) {
		req, rc := newAuthRequest(http.MethodDelete, "/v1/attendance/"+rec.ID, getToken(t, admin.Account))
		app.server.ServeHTTP(rc, req)
		require.Equal(t, http.StatusNoContent, rc.Code, rc.Body.String())

		sum, err := app.attendanceSvc.Summarize(ctx, alice.ID, crs.ID)
		require.NoError(t, err)
		assert.Zero(t, sum.Total)
	})

	t.Run("unknown record", func(t *testing.T) {
		req, rc := newAuthRequest(http.MethodDelete, "/v1/attendance/nope", getToken(t, admin.Account))
		app.server.ServeHTTP(rc, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: attendance.ErrNotFound.Error()}),
		}, rc)
	})
}
