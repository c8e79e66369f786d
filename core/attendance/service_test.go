package attendance_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/attendance"
	logsvc "github.com/tmalache/chuo/services/logger"
	dummydb "github.com/tmalache/chuo/storage/database/dummy"
)

type fakeCourses struct {
	owners   map[string]string
	enrolled map[string][]string
}

func (f *fakeCourses) OwnsCourse(ctx context.Context, courseID, facultyID string) (bool, error) {
	return f.owners[courseID] == facultyID, nil
}

func (f *fakeCourses) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	for _, id := range f.enrolled[courseID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

const (
	crsAlgo = "crs-algo"
	facX    = "fac-x"
	facY    = "fac-y"
	stdA    = "std-a"
	stdB    = "std-b"
)

func setup(t *testing.T) *attendance.Service {
	db, err := dummydb.Open()
	require.NoError(t, err)

	courses := &fakeCourses{
		owners:   map[string]string{crsAlgo: facX},
		enrolled: map[string][]string{crsAlgo: {stdA, stdB}},
	}
	logger := logsvc.NewPlainLogger(log.New(io.Discard, "", 0))
	return attendance.NewService(dummydb.NewAttendanceRepository(db), courses, logger)
}

func mark(t *testing.T, svc *attendance.Service, studentID, date string, status attendance.Status) attendance.Record {
	ma := attendance.MarkAttendance{StudentID: studentID, Date: date, Status: status}
	require.NoError(t, ma.Validate())
	rec, err := svc.Mark(context.Background(), crsAlgo, facX, ma)
	require.NoError(t, err)
	return rec
}

func TestService_Mark(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	rec := mark(t, svc, stdA, "2026-03-02", attendance.StatusPresent)
	assert.Equal(t, attendance.ClassLecture, rec.ClassType, "class type defaults to Lecture")
	assert.Equal(t, facX, rec.MarkedBy)

	t.Run("duplicate session", func(t *testing.T) {
		ma := attendance.MarkAttendance{StudentID: stdA, Date: "2026-03-02", Status: attendance.StatusAbsent}
		require.NoError(t, ma.Validate())
		_, err := svc.Mark(ctx, crsAlgo, facX, ma)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, attendance.ErrAlreadyMarked, vErr.Err)
	})

	t.Run("same day different class type", func(t *testing.T) {
		ma := attendance.MarkAttendance{StudentID: stdA, Date: "2026-03-02", ClassType: attendance.ClassLab, Status: attendance.StatusPresent}
		require.NoError(t, ma.Validate())
		_, err := svc.Mark(ctx, crsAlgo, facX, ma)
		assert.NoError(t, err)
	})

	t.Run("not owner", func(t *testing.T) {
		ma := attendance.MarkAttendance{StudentID: stdA, Date: "2026-03-03", Status: attendance.StatusPresent}
		require.NoError(t, ma.Validate())
		_, err := svc.Mark(ctx, crsAlgo, facY, ma)
		assert.Equal(t, attendance.ErrNotOwner, err)
	})

	t.Run("not enrolled", func(t *testing.T) {
		ma := attendance.MarkAttendance{StudentID: "ghost", Date: "2026-03-03", Status: attendance.StatusPresent}
		require.NoError(t, ma.Validate())
		_, err := svc.Mark(ctx, crsAlgo, facX, ma)
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("bad input", func(t *testing.T) {
		ma := attendance.MarkAttendance{StudentID: stdA, Date: "03/02/2026", Status: attendance.StatusPresent}
		assert.Error(t, ma.Validate())

		ma = attendance.MarkAttendance{StudentID: stdA, Date: "2026-03-03", Status: "Sleeping"}
		assert.Error(t, ma.Validate())
	})
}

func TestService_Summarize(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	t.Run("no records", func(t *testing.T) {
		sum, err := svc.Summarize(ctx, stdA, crsAlgo)
		require.NoError(t, err)
		assert.Zero(t, sum.Total)
		assert.Zero(t, sum.Percentage)
	})

	// Present and Excused count as attended; Absent and Leave do not.
	mark(t, svc, stdA, "2026-03-02", attendance.StatusPresent)
	mark(t, svc, stdA, "2026-03-03", attendance.StatusAbsent)
	mark(t, svc, stdA, "2026-03-04", attendance.StatusExcused)
	mark(t, svc, stdA, "2026-03-05", attendance.StatusLeave)
	mark(t, svc, stdA, "2026-03-06", attendance.StatusPresent)
	mark(t, svc, stdA, "2026-03-09", attendance.StatusPresent)

	sum, err := svc.Summarize(ctx, stdA, crsAlgo)
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Total)
	assert.Equal(t, 3, sum.Present)
	assert.Equal(t, 1, sum.Absent)
	assert.Equal(t, 1, sum.Excused)
	assert.Equal(t, 1, sum.Leave)
	assert.Equal(t, 66.67, sum.Percentage)
}

func TestService_Correct(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	rec := mark(t, svc, stdA, "2026-03-02", attendance.StatusAbsent)

	_, err := svc.Correct(ctx, rec.ID, facY, attendance.StatusPresent)
	assert.Equal(t, attendance.ErrNotOwner, err)

	_, err = svc.Correct(ctx, rec.ID, facX, "Sleeping")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	rec, err = svc.Correct(ctx, rec.ID, facX, attendance.StatusExcused)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusExcused, rec.Status)

	sum, err := svc.Summarize(ctx, stdA, crsAlgo)
	require.NoError(t, err)
	assert.Equal(t, 100.0, sum.Percentage)
}

func TestService_ListByCourse(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	mark(t, svc, stdA, "2026-03-02", attendance.StatusPresent)
	mark(t, svc, stdB, "2026-03-02", attendance.StatusPresent)
	mark(t, svc, stdA, "2026-03-09", attendance.StatusPresent)

	_, err := svc.ListByCourse(ctx, crsAlgo, facY, time.Time{}, time.Time{})
	assert.Equal(t, attendance.ErrNotOwner, err)

	recs, err := svc.ListByCourse(ctx, crsAlgo, facX, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	from, _ := time.Parse("2006-01-02", "2026-03-05")
	recs, err = svc.ListByCourse(ctx, crsAlgo, facX, from, time.Time{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, stdA, recs[0].StudentID)
}

func TestService_Delete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	rec := mark(t, svc, stdA, "2026-03-02", attendance.StatusAbsent)
	mark(t, svc, stdA, "2026-03-09", attendance.StatusPresent)

	require.NoError(t, svc.Delete(ctx, rec.ID))

	sum, err := svc.Summarize(ctx, stdA, crsAlgo)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Total, "deleted record drops out of the summary")
	assert.Equal(t, 100.0, sum.Percentage)

	assert.Equal(t, attendance.ErrNotFound, svc.Delete(ctx, rec.ID), "second delete finds nothing")
}
