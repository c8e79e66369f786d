package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
)

var (
	// errors
	ErrNotFound      = errors.New("attendance record not found")
	ErrNotOwner      = errors.New("faculty does not own this course")
	ErrAlreadyMarked = errors.New("attendance already marked")
	ErrUnknownStatus = errors.New("unknown attendance status")
)

type Service struct {
	repo    Repository
	courses CourseDirectory
	logger  core.Logger
}

func NewService(repo Repository, courses CourseDirectory, logger core.Logger) *Service {
	return &Service{repo: repo, courses: courses, logger: logger}
}

// Mark records one student's attendance for a session. A second mark for
// the same (student, course, date, class type) is rejected; the unique
// index backs this up under concurrency.
func (svc *Service) Mark(ctx context.Context, courseID, facultyID string, ma MarkAttendance) (Record, error) {
	owns, err := svc.courses.OwnsCourse(ctx, courseID, facultyID)
	if err != nil {
		return Record{}, err
	}
	if !owns {
		return Record{}, ErrNotOwner
	}
	enrolled, err := svc.courses.IsEnrolled(ctx, courseID, ma.StudentID)
	if err != nil {
		return Record{}, err
	}
	if !enrolled {
		return Record{}, core.NewValidationError(errors.New("student not enrolled in this course"),
			core.FieldError{Field: "student_id", Error: "student not enrolled in this course"})
	}

	if _, err = svc.repo.GetRecord(ctx, ma.StudentID, courseID, ma.ParsedDate(), ma.ClassType); err == nil {
		return Record{}, core.NewValidationError(ErrAlreadyMarked)
	} else if errors.Cause(err) != ErrNotFound {
		return Record{}, err
	}

	rec, err := svc.repo.CreateRecord(ctx, Record{
		StudentID: ma.StudentID,
		CourseID:  courseID,
		Date:      ma.ParsedDate(),
		ClassType: ma.ClassType,
		Status:    ma.Status,
		MarkedBy:  facultyID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyMarked {
			return Record{}, core.NewValidationError(ErrAlreadyMarked)
		}
		return Record{}, err
	}
	return rec, nil
}

// ListByCourse returns a course's records ordered by date ascending then
// student id ascending; from/to bound the date window when non-zero.
func (svc *Service) ListByCourse(ctx context.Context, courseID, facultyID string, from, to time.Time) ([]Record, error) {
	owns, err := svc.courses.OwnsCourse(ctx, courseID, facultyID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, ErrNotOwner
	}
	return svc.repo.QueryByCourse(ctx, courseID, from, to)
}

func (svc *Service) ListForStudent(ctx context.Context, studentID string) ([]Record, error) {
	return svc.repo.QueryByStudent(ctx, studentID)
}

// Summarize computes the (student, course) aggregate. Percentage counts
// Present and Excused as attended, rounded to 2 decimals; 0 with no records.
func (svc *Service) Summarize(ctx context.Context, studentID, courseID string) (Summary, error) {
	records, err := svc.repo.QueryByStudentCourse(ctx, studentID, courseID)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{StudentID: studentID, CourseID: courseID, Total: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case StatusPresent:
			sum.Present++
		case StatusAbsent:
			sum.Absent++
		case StatusLeave:
			sum.Leave++
		case StatusExcused:
			sum.Excused++
		}
	}
	if sum.Total > 0 {
		sum.Percentage = core.Round2(float64(sum.Present+sum.Excused) / float64(sum.Total) * 100)
	}
	return sum, nil
}

// Delete removes a record entirely; summaries recompute on next read.
// The route restricts this to admins.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteRecord(ctx, id)
}

// Correct updates a record's status; restricted to the marking faculty's
// course.
func (svc *Service) Correct(ctx context.Context, id, facultyID string, status Status) (Record, error) {
	if !allStatuses[status] {
		return Record{}, core.NewValidationError(ErrUnknownStatus, core.FieldError{Field: "status", Error: ErrUnknownStatus.Error()})
	}
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	owns, err := svc.courses.OwnsCourse(ctx, rec.CourseID, facultyID)
	if err != nil {
		return Record{}, err
	}
	if !owns {
		return Record{}, ErrNotOwner
	}
	rec.Status = status
	return svc.repo.UpdateRecord(ctx, rec)
}
