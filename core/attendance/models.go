package attendance

import (
	"context"
	"time"

	"github.com/tmalache/chuo/core"
)

// Canonical attendance statuses. Excused absences count towards the
// attended side of the percentage.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLeave   Status = "Leave"
	StatusExcused Status = "Excused"
)

var allStatuses = map[Status]bool{
	StatusPresent: true,
	StatusAbsent:  true,
	StatusLeave:   true,
	StatusExcused: true,
}

// Class types a session can be marked under. One record per
// (student, course, date, class type).
const (
	ClassLecture  = "Lecture"
	ClassLab      = "Lab"
	ClassTutorial = "Tutorial"
)

type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"date"` // date component only, UTC
	ClassType string    `json:"class_type"`
	Status    Status    `json:"status"`
	MarkedBy  string    `json:"marked_by"` // faculty id
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Summary is the aggregate for one (student, course) pair.
type Summary struct {
	StudentID  string  `json:"student_id"`
	CourseID   string  `json:"course_id"`
	Total      int     `json:"total"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Leave      int     `json:"leave"`
	Excused    int     `json:"excused"`
	Percentage float64 `json:"percentage"`
}

type Repository interface {
	CreateRecord(ctx context.Context, rec Record) (Record, error)
	GetRecordByID(ctx context.Context, id string) (Record, error)
	GetRecord(ctx context.Context, studentID, courseID string, date time.Time, classType string) (Record, error)
	// QueryByCourse returns records ordered by date ascending, then
	// student id ascending.
	QueryByCourse(ctx context.Context, courseID string, from, to time.Time) ([]Record, error)
	QueryByStudentCourse(ctx context.Context, studentID, courseID string) ([]Record, error)
	QueryByStudent(ctx context.Context, studentID string) ([]Record, error)
	UpdateRecord(ctx context.Context, rec Record) (Record, error)
	DeleteRecord(ctx context.Context, id string) error
}

// CourseDirectory is the slice of the course service the attendance
// service needs.
type CourseDirectory interface {
	OwnsCourse(ctx context.Context, courseID, facultyID string) (bool, error)
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
}

// MarkAttendance contains information needed to mark one student's
// attendance for a session.
type MarkAttendance struct {
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"required"` // 2006-01-02
	ClassType string `json:"class_type"`
	Status    Status `json:"status" validate:"required"`

	date time.Time
}

func (ma *MarkAttendance) Validate() error {
	ma.ClassType = core.CleanString(ma.ClassType)
	if ma.ClassType == "" {
		ma.ClassType = ClassLecture
	}
	if err := core.Validate.Struct(ma); err != nil {
		return err
	}
	if !allStatuses[ma.Status] {
		return core.NewValidationError(ErrUnknownStatus, core.FieldError{Field: "status", Error: ErrUnknownStatus.Error()})
	}
	date, err := time.Parse("2006-01-02", ma.Date)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be formatted as 2006-01-02"})
	}
	ma.date = date.UTC()
	return nil
}

// ParsedDate returns the parsed date; Validate must have run first.
func (ma MarkAttendance) ParsedDate() time.Time { return ma.date }
