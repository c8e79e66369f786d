package grade

import (
	"context"
	"time"

	"github.com/tmalache/chuo/core"
)

// Grade lifecycle. Draft grades are only visible to faculty; published
// grades reach the student; finalized grades are immutable and feed GPA.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
	StatusFinalized Status = "Finalized"
)

type Grade struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	CourseID      string    `json:"course_id"`
	Year          int       `json:"year"`
	Semester      int       `json:"semester"`
	Letter        string    `json:"letter"` // A, B+, ...
	GradePoints   float64   `json:"grade_points"`
	Credits       int       `json:"credits"` // copied from the course at grading time
	MarksObtained float64   `json:"marks_obtained"`
	TotalMarks    float64   `json:"total_marks"`
	Status        Status    `json:"status"`
	GradedBy      string    `json:"graded_by"` // faculty id
	GradedAt      time.Time `json:"graded_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// CourseRef is the projection embedded in grade and result views.
type CourseRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Credits int    `json:"credits"`
}

// GradeView is a grade with its course projection expanded.
type GradeView struct {
	Grade
	Course *CourseRef `json:"course,omitempty"`
}

// Result is the per-(student, year, semester) aggregate view. It is
// computed on demand, never stored.
type Result struct {
	StudentID string      `json:"student_id"`
	Year      int         `json:"year"`
	Semester  int         `json:"semester"`
	Grades    []GradeView `json:"grades"`
	GPA       float64     `json:"gpa"`
}

type Repository interface {
	CreateGrade(ctx context.Context, grd Grade) (Grade, error)
	GetGradeByID(ctx context.Context, id string) (Grade, error)
	GetGradeForStudentCourse(ctx context.Context, studentID, courseID string, year, semester int) (Grade, error)
	// QueryGradesByCourse returns grades ordered by graded_at descending.
	QueryGradesByCourse(ctx context.Context, courseID string) ([]Grade, error)
	// QueryGradesByStudent applies AND on the optional year/semester
	// window (0 means unconstrained), ordered by graded_at descending.
	QueryGradesByStudent(ctx context.Context, studentID string, year, semester int) ([]Grade, error)
	UpdateGrade(ctx context.Context, grd Grade) (Grade, error)
	DeleteGrade(ctx context.Context, id string) error
}

// CourseDirectory is the slice of the course service the grade service
// needs; satisfied by an adapter at wiring time.
type CourseDirectory interface {
	GetCourseRef(ctx context.Context, id string) (CourseRef, error)
	OwnsCourse(ctx context.Context, courseID, facultyID string) (bool, error)
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
}

// letterPoints maps grade letters to points on the 10-point scale.
var letterPoints = map[string]float64{
	"A+": 10, "A": 9, "B+": 8, "B": 7, "C+": 6, "C": 5, "D": 4, "F": 0,
}

// PointsFor returns the grade points for a letter, false for unknown letters.
func PointsFor(letter string) (float64, bool) {
	pts, ok := letterPoints[letter]
	return pts, ok
}

// NewGrade contains information needed to record a Grade.
type NewGrade struct {
	StudentID     string  `json:"student_id" validate:"required"`
	Year          int     `json:"year" validate:"required,min=1,max=6"`
	Semester      int     `json:"semester" validate:"required,min=1,max=12"`
	Letter        string  `json:"letter" validate:"required"`
	MarksObtained float64 `json:"marks_obtained" validate:"min=0"`
	TotalMarks    float64 `json:"total_marks" validate:"min=0"`
}

func (ng *NewGrade) Validate() error {
	ng.Letter = core.CleanString(ng.Letter)
	if err := core.Validate.Struct(ng); err != nil {
		return err
	}
	if _, ok := PointsFor(ng.Letter); !ok {
		return core.NewValidationError(ErrUnknownLetter, core.FieldError{Field: "letter", Error: ErrUnknownLetter.Error()})
	}
	return nil
}

// UpdateGrade defines what information may be provided to modify a Draft
// grade.
type UpdateGrade struct {
	Letter        string  `json:"letter"`
	MarksObtained float64 `json:"marks_obtained" validate:"min=0"`
	TotalMarks    float64 `json:"total_marks" validate:"min=0"`
}

func (ug *UpdateGrade) Validate() error {
	ug.Letter = core.CleanString(ug.Letter)
	if err := core.Validate.Struct(ug); err != nil {
		return err
	}
	if ug.Letter != "" {
		if _, ok := PointsFor(ug.Letter); !ok {
			return core.NewValidationError(ErrUnknownLetter, core.FieldError{Field: "letter", Error: ErrUnknownLetter.Error()})
		}
	}
	return nil
}
