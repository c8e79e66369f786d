package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrDeptNotFound     = errors.New("department not found")
	ErrMaterialNotFound = errors.New("material not found")
	ErrSlotNotFound     = errors.New("timetable slot not found")
	ErrCourseFull       = errors.New("course is full")
	ErrAlreadyEnrolled  = errors.New("student already enrolled in this course")
	ErrNotEnrolled      = errors.New("student not enrolled in this course")
	ErrNotOwner         = errors.New("faculty does not own this course")
)

type Service struct {
	repo     Repository
	students StudentDirectory
	logger   core.Logger
}

func NewService(repo Repository, students StudentDirectory, logger core.Logger) *Service {
	return &Service{repo: repo, students: students, logger: logger}
}

// Departments

func (svc *Service) CreateDepartment(ctx context.Context, nd NewDepartment) (Department, error) {
	now := time.Now().UTC()
	return svc.repo.CreateDepartment(ctx, Department{
		Name:      nd.Name,
		Code:      nd.Code,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetDepartment(ctx context.Context, id string) (Department, error) {
	return svc.repo.GetDepartmentByID(ctx, id)
}

func (svc *Service) QueryDepartments(ctx context.Context) ([]Department, error) {
	return svc.repo.QueryDepartments(ctx)
}

func (svc *Service) UpdateDepartment(ctx context.Context, id string, nd NewDepartment) (Department, error) {
	dept, err := svc.repo.GetDepartmentByID(ctx, id)
	if err != nil {
		return Department{}, err
	}
	dept.Name = nd.Name
	dept.Code = nd.Code
	dept.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateDepartment(ctx, dept)
}

func (svc *Service) DeleteDepartment(ctx context.Context, id string) error {
	return svc.repo.DeleteDepartment(ctx, id)
}

// Courses

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	if _, err := svc.repo.GetDepartmentByID(ctx, nc.DepartmentID); err != nil {
		if errors.Cause(err) == ErrDeptNotFound {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "department_id", Error: err.Error()})
		}
		return Course{}, err
	}

	now := time.Now().UTC()
	crs := Course{
		Name:         nc.Name,
		Code:         nc.Code,
		Description:  nc.Description,
		DepartmentID: nc.DepartmentID,
		Credits:      nc.Credits,
		MaxStudents:  nc.MaxStudents,
		Year:         nc.Year,
		Semester:     nc.Semester,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if nc.FacultyID != "" {
		if _, err := svc.repo.GetFacultyRef(ctx, nc.FacultyID); err != nil {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "faculty_id", Error: err.Error()})
		}
		crs.FacultyID.SetValid(nc.FacultyID)
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

// GetCourseDetail expands department, faculty and roster projections.
func (svc *Service) GetCourseDetail(ctx context.Context, id string) (CourseDetail, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return CourseDetail{}, err
	}
	detail := CourseDetail{Course: crs, Students: []StudentRef{}}

	if dept, err := svc.repo.GetDepartmentRef(ctx, crs.DepartmentID); err == nil {
		detail.Department = &dept
	}
	if crs.FacultyID.Valid {
		if fac, err := svc.repo.GetFacultyRef(ctx, crs.FacultyID.String); err == nil {
			detail.Faculty = &fac
		}
	}
	students, err := svc.repo.GetEnrolledStudents(ctx, id)
	if err != nil {
		return CourseDetail{}, errors.Wrap(err, "fetching roster")
	}
	detail.Students = students
	return detail, nil
}

func (svc *Service) QueryCourses(ctx context.Context, filter *QueryFilter) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *Service) UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if uc.Name != "" {
		crs.Name = uc.Name
	}
	if uc.Code != "" {
		crs.Code = uc.Code
	}
	if uc.Description != "" {
		crs.Description = uc.Description
	}
	if uc.Credits != 0 {
		crs.Credits = uc.Credits
	}
	if uc.MaxStudents != 0 {
		crs.MaxStudents = uc.MaxStudents
	}
	if uc.Year != 0 {
		crs.Year = uc.Year
	}
	if uc.Semester != 0 {
		crs.Semester = uc.Semester
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) DeleteCourse(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

// AssignFaculty sets (or clears, with an empty id) the course's faculty.
func (svc *Service) AssignFaculty(ctx context.Context, courseID, facultyID string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if facultyID == "" {
		crs.FacultyID.Valid = false
		crs.FacultyID.String = ""
	} else {
		if _, err = svc.repo.GetFacultyRef(ctx, facultyID); err != nil {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "faculty_id", Error: err.Error()})
		}
		crs.FacultyID.SetValid(facultyID)
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

// Enrollment

// Enroll adds a student to a course roster. Capacity and duplication are
// checked inside the repo transaction; sequential duplicates surface as
// validation errors.
func (svc *Service) Enroll(ctx context.Context, courseID, studentID string) error {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if _, err = svc.students.GetStudentRef(ctx, studentID); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
	}

	if err = svc.repo.EnrollStudent(ctx, courseID, studentID, crs.MaxStudents); err != nil {
		switch errors.Cause(err) {
		case ErrCourseFull, ErrAlreadyEnrolled:
			return core.NewValidationError(err)
		}
		return err
	}
	return nil
}

func (svc *Service) Unenroll(ctx context.Context, courseID, studentID string) error {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return err
	}
	if err := svc.repo.UnenrollStudent(ctx, courseID, studentID); err != nil {
		if errors.Cause(err) == ErrNotEnrolled {
			return core.NewValidationError(err)
		}
		return err
	}
	return nil
}

func (svc *Service) GetRoster(ctx context.Context, courseID string) ([]StudentRef, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return svc.repo.GetEnrolledStudents(ctx, courseID)
}

func (svc *Service) GetCoursesForStudent(ctx context.Context, studentID string) ([]Course, error) {
	return svc.repo.GetCoursesForStudent(ctx, studentID)
}

func (svc *Service) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	return svc.repo.IsEnrolled(ctx, courseID, studentID)
}

// OwnsCourse reports whether a faculty member is assigned to the course.
// Used by the authorization gate for grade/attendance/material mutations.
func (svc *Service) OwnsCourse(ctx context.Context, courseID, facultyID string) (bool, error) {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return false, err
	}
	return crs.OwnedBy(facultyID), nil
}

// Materials

func (svc *Service) AddMaterial(ctx context.Context, courseID, facultyID string, nm NewMaterial) (CourseMaterial, error) {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return CourseMaterial{}, err
	}
	if !crs.OwnedBy(facultyID) {
		return CourseMaterial{}, ErrNotOwner
	}
	return svc.repo.CreateMaterial(ctx, CourseMaterial{
		CourseID:    courseID,
		Title:       nm.Title,
		Description: nm.Description,
		FileURL:     nm.FileURL,
		UploadedBy:  facultyID,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *Service) GetMaterials(ctx context.Context, courseID string) ([]CourseMaterial, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMaterials(ctx, courseID)
}

func (svc *Service) UpdateMaterial(ctx context.Context, id, facultyID string, nm NewMaterial) (CourseMaterial, error) {
	mat, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return CourseMaterial{}, err
	}
	crs, err := svc.repo.GetCourseByID(ctx, mat.CourseID)
	if err != nil {
		return CourseMaterial{}, err
	}
	if !crs.OwnedBy(facultyID) {
		return CourseMaterial{}, ErrNotOwner
	}
	mat.Title = nm.Title
	mat.Description = nm.Description
	mat.FileURL = nm.FileURL
	return svc.repo.UpdateMaterial(ctx, mat)
}

func (svc *Service) DeleteMaterial(ctx context.Context, id, facultyID string) error {
	mat, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return err
	}
	crs, err := svc.repo.GetCourseByID(ctx, mat.CourseID)
	if err != nil {
		return err
	}
	if !crs.OwnedBy(facultyID) {
		return ErrNotOwner
	}
	return svc.repo.DeleteMaterial(ctx, id)
}

// Timetable

func (svc *Service) AddTimetableSlot(ctx context.Context, courseID string, nt NewTimetableSlot) (TimetableSlot, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return TimetableSlot{}, err
	}
	return svc.repo.CreateTimetableSlot(ctx, TimetableSlot{
		CourseID:  courseID,
		DayOfWeek: nt.DayOfWeek,
		StartTime: nt.StartTime,
		EndTime:   nt.EndTime,
		Room:      nt.Room,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) GetTimetable(ctx context.Context, courseID string) ([]TimetableSlot, error) {
	return svc.repo.QueryTimetable(ctx, courseID)
}

// GetTimetableForStudent merges the slots of every course the student is
// enrolled in.
func (svc *Service) GetTimetableForStudent(ctx context.Context, studentID string) ([]TimetableSlot, error) {
	courses, err := svc.repo.GetCoursesForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	slots := make([]TimetableSlot, 0)
	for _, crs := range courses {
		cs, err := svc.repo.QueryTimetable(ctx, crs.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching timetable for course %s", crs.ID)
		}
		slots = append(slots, cs...)
	}
	return slots, nil
}

func (svc *Service) DeleteTimetableSlot(ctx context.Context, id string) error {
	return svc.repo.DeleteTimetableSlot(ctx, id)
}
