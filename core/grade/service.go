package grade

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
)

var (
	// errors
	ErrNotFound      = errors.New("grade not found")
	ErrNotOwner      = errors.New("faculty does not own this course")
	ErrNotDraft      = errors.New("only draft grades can be modified")
	ErrFinalized     = errors.New("grade already finalized")
	ErrUnknownLetter = errors.New("unknown grade letter")
	ErrDuplicate     = errors.New("grade already recorded for this student and course")
)

type Service struct {
	repo    Repository
	courses CourseDirectory
	logger  core.Logger
}

func NewService(repo Repository, courses CourseDirectory, logger core.Logger) *Service {
	return &Service{repo: repo, courses: courses, logger: logger}
}

// Record creates a Draft grade for a student in a course the faculty owns.
func (svc *Service) Record(ctx context.Context, courseID, facultyID string, ng NewGrade) (Grade, error) {
	crs, err := svc.courses.GetCourseRef(ctx, courseID)
	if err != nil {
		return Grade{}, err
	}
	owns, err := svc.courses.OwnsCourse(ctx, courseID, facultyID)
	if err != nil {
		return Grade{}, err
	}
	if !owns {
		return Grade{}, ErrNotOwner
	}
	enrolled, err := svc.courses.IsEnrolled(ctx, courseID, ng.StudentID)
	if err != nil {
		return Grade{}, err
	}
	if !enrolled {
		return Grade{}, core.NewValidationError(errors.New("student not enrolled in this course"),
			core.FieldError{Field: "student_id", Error: "student not enrolled in this course"})
	}

	if _, err = svc.repo.GetGradeForStudentCourse(ctx, ng.StudentID, courseID, ng.Year, ng.Semester); err == nil {
		return Grade{}, core.NewValidationError(ErrDuplicate)
	} else if errors.Cause(err) != ErrNotFound {
		return Grade{}, err
	}

	pts, _ := PointsFor(ng.Letter)
	now := time.Now().UTC()
	return svc.repo.CreateGrade(ctx, Grade{
		StudentID:     ng.StudentID,
		CourseID:      courseID,
		Year:          ng.Year,
		Semester:      ng.Semester,
		Letter:        ng.Letter,
		GradePoints:   pts,
		Credits:       crs.Credits,
		MarksObtained: ng.MarksObtained,
		TotalMarks:    ng.TotalMarks,
		Status:        StatusDraft,
		GradedBy:      facultyID,
		GradedAt:      now,
		UpdatedAt:     now,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Grade, error) {
	return svc.repo.GetGradeByID(ctx, id)
}

// Update modifies a Draft grade; published and finalized grades are immutable.
func (svc *Service) Update(ctx context.Context, id, facultyID string, ug UpdateGrade) (Grade, error) {
	grd, err := svc.ownedGrade(ctx, id, facultyID)
	if err != nil {
		return Grade{}, err
	}
	if grd.Status != StatusDraft {
		return Grade{}, core.NewValidationError(ErrNotDraft)
	}

	if ug.Letter != "" {
		pts, _ := PointsFor(ug.Letter)
		grd.Letter = ug.Letter
		grd.GradePoints = pts
	}
	if ug.MarksObtained != 0 {
		grd.MarksObtained = ug.MarksObtained
	}
	if ug.TotalMarks != 0 {
		grd.TotalMarks = ug.TotalMarks
	}
	grd.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGrade(ctx, grd)
}

// Publish makes a Draft grade visible to the student.
func (svc *Service) Publish(ctx context.Context, id, facultyID string) (Grade, error) {
	grd, err := svc.ownedGrade(ctx, id, facultyID)
	if err != nil {
		return Grade{}, err
	}
	if grd.Status != StatusDraft {
		return Grade{}, core.NewValidationError(ErrNotDraft)
	}
	grd.Status = StatusPublished
	grd.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGrade(ctx, grd)
}

// Finalize locks a Published grade; only finalized grades count towards GPA.
func (svc *Service) Finalize(ctx context.Context, id, facultyID string) (Grade, error) {
	grd, err := svc.ownedGrade(ctx, id, facultyID)
	if err != nil {
		return Grade{}, err
	}
	switch grd.Status {
	case StatusFinalized:
		return Grade{}, core.NewValidationError(ErrFinalized)
	case StatusDraft:
		return Grade{}, core.NewValidationError(errors.New("grade must be published before finalizing"))
	}
	grd.Status = StatusFinalized
	grd.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGrade(ctx, grd)
}

func (svc *Service) Delete(ctx context.Context, id, facultyID string) error {
	grd, err := svc.ownedGrade(ctx, id, facultyID)
	if err != nil {
		return err
	}
	if grd.Status == StatusFinalized {
		return core.NewValidationError(ErrFinalized)
	}
	return svc.repo.DeleteGrade(ctx, id)
}

// ListByCourse returns all grades of a course, newest first. Faculty only.
func (svc *Service) ListByCourse(ctx context.Context, courseID, facultyID string) ([]Grade, error) {
	owns, err := svc.courses.OwnsCourse(ctx, courseID, facultyID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, ErrNotOwner
	}
	return svc.repo.QueryGradesByCourse(ctx, courseID)
}

// ListForStudent returns the student's published and finalized grades,
// newest first, with course projections expanded.
func (svc *Service) ListForStudent(ctx context.Context, studentID string, year, semester int) ([]GradeView, error) {
	grades, err := svc.repo.QueryGradesByStudent(ctx, studentID, year, semester)
	if err != nil {
		return nil, err
	}
	views := make([]GradeView, 0, len(grades))
	for _, grd := range grades {
		if grd.Status == StatusDraft {
			continue
		}
		views = append(views, svc.view(ctx, grd))
	}
	return views, nil
}

// GPA computes the credit-weighted average of finalized grade points in
// the optional (year, semester) window; 0 when no credits qualify.
func (svc *Service) GPA(ctx context.Context, studentID string, year, semester int) (float64, error) {
	grades, err := svc.repo.QueryGradesByStudent(ctx, studentID, year, semester)
	if err != nil {
		return 0, err
	}
	var points float64
	var credits int
	for _, grd := range grades {
		if grd.Status != StatusFinalized {
			continue
		}
		points += grd.GradePoints * float64(grd.Credits)
		credits += grd.Credits
	}
	if credits == 0 {
		return 0, nil
	}
	return core.Round2(points / float64(credits)), nil
}

// Result assembles the (student, year, semester) result view on demand.
func (svc *Service) Result(ctx context.Context, studentID string, year, semester int) (Result, error) {
	views, err := svc.ListForStudent(ctx, studentID, year, semester)
	if err != nil {
		return Result{}, err
	}
	gpa, err := svc.GPA(ctx, studentID, year, semester)
	if err != nil {
		return Result{}, err
	}
	return Result{
		StudentID: studentID,
		Year:      year,
		Semester:  semester,
		Grades:    views,
		GPA:       gpa,
	}, nil
}

func (svc *Service) ownedGrade(ctx context.Context, id, facultyID string) (Grade, error) {
	grd, err := svc.repo.GetGradeByID(ctx, id)
	if err != nil {
		return Grade{}, err
	}
	owns, err := svc.courses.OwnsCourse(ctx, grd.CourseID, facultyID)
	if err != nil {
		return Grade{}, err
	}
	if !owns {
		return Grade{}, ErrNotOwner
	}
	return grd, nil
}

func (svc *Service) view(ctx context.Context, grd Grade) GradeView {
	view := GradeView{Grade: grd}
	if crs, err := svc.courses.GetCourseRef(ctx, grd.CourseID); err == nil {
		view.Course = &crs
	}
	return view
}
