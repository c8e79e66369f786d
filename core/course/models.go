package course

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tmalache/chuo/core"
)

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Course struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Code         string      `json:"code"`
	Description  string      `json:"description"`
	DepartmentID string      `json:"department_id"`
	FacultyID    null.String `json:"faculty_id"`
	Credits      int         `json:"credits"`
	MaxStudents  int         `json:"max_students"`
	Year         int         `json:"year"`
	Semester     int         `json:"semester"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

// OwnedBy reports whether the course is assigned to the given faculty.
func (c Course) OwnedBy(facultyID string) bool {
	return c.FacultyID.Valid && c.FacultyID.String == facultyID
}

type CourseMaterial struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileURL     string    `json:"file_url"`
	UploadedBy  string    `json:"uploaded_by"` // faculty id
	CreatedAt   time.Time `json:"created_at"`  // UTC
}

type TimetableSlot struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	DayOfWeek int       `json:"day_of_week"` // 1=Monday .. 7=Sunday
	StartTime string    `json:"start_time"`  // "09:00"
	EndTime   string    `json:"end_time"`    // "10:30"
	Room      string    `json:"room"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Reference projections embedded in list/detail responses. These are
// narrow views fetched by the repo, never full principal records.
type (
	StudentRef struct {
		ID                 string `json:"id"`
		Name               string `json:"name"`
		RegistrationNumber string `json:"registration_number"`
	}

	FacultyRef struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Designation string `json:"designation"`
	}

	DepartmentRef struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Code string `json:"code"`
	}
)

// CourseDetail is the detail view with referenced entities expanded.
type CourseDetail struct {
	Course
	Department *DepartmentRef `json:"department,omitempty"`
	Faculty    *FacultyRef    `json:"faculty,omitempty"`
	Students   []StudentRef   `json:"students"`
}

type Repository interface {
	// departments
	CreateDepartment(ctx context.Context, dept Department) (Department, error)
	GetDepartmentByID(ctx context.Context, id string) (Department, error)
	QueryDepartments(ctx context.Context) ([]Department, error)
	UpdateDepartment(ctx context.Context, dept Department) (Department, error)
	DeleteDepartment(ctx context.Context, id string) error

	// courses
	CreateCourse(ctx context.Context, crs Course) (Course, error)
	GetCourseByID(ctx context.Context, id string) (Course, error)
	// QueryCourses applies AND on available filter fields.
	QueryCourses(ctx context.Context, filter *QueryFilter) ([]Course, error)
	UpdateCourse(ctx context.Context, crs Course) (Course, error)
	DeleteCourse(ctx context.Context, id string) error

	// enrollment. Both sides of the student↔course relation derive from a
	// single course_students relation; EnrollStudent checks capacity and
	// duplication and inserts in one transaction.
	EnrollStudent(ctx context.Context, courseID, studentID string, maxStudents int) error
	UnenrollStudent(ctx context.Context, courseID, studentID string) error
	GetEnrolledStudents(ctx context.Context, courseID string) ([]StudentRef, error)
	GetCoursesForStudent(ctx context.Context, studentID string) ([]Course, error)
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)

	// projections
	GetDepartmentRef(ctx context.Context, id string) (DepartmentRef, error)
	GetFacultyRef(ctx context.Context, id string) (FacultyRef, error)

	// materials
	CreateMaterial(ctx context.Context, mat CourseMaterial) (CourseMaterial, error)
	GetMaterialByID(ctx context.Context, id string) (CourseMaterial, error)
	QueryMaterials(ctx context.Context, courseID string) ([]CourseMaterial, error)
	UpdateMaterial(ctx context.Context, mat CourseMaterial) (CourseMaterial, error)
	DeleteMaterial(ctx context.Context, id string) error

	// timetable
	CreateTimetableSlot(ctx context.Context, slot TimetableSlot) (TimetableSlot, error)
	QueryTimetable(ctx context.Context, courseID string) ([]TimetableSlot, error)
	DeleteTimetableSlot(ctx context.Context, id string) error
}

// StudentDirectory resolves student references without importing the
// principal package; the user service satisfies it through an adapter
// at wiring time.
type StudentDirectory interface {
	GetStudentRef(ctx context.Context, id string) (StudentRef, error)
}

// NewDepartment contains information needed to create a Department.
type NewDepartment struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required,alphanum"`
}

func (nd *NewDepartment) Validate() error {
	nd.Name = core.CleanString(nd.Name)
	nd.Code = core.CleanString(nd.Code, true /* lower */)
	return core.Validate.Struct(nd)
}

// NewCourse contains information needed to create a Course.
type NewCourse struct {
	Name         string `json:"name" validate:"required"`
	Code         string `json:"code" validate:"required"`
	Description  string `json:"description"`
	DepartmentID string `json:"department_id" validate:"required"`
	FacultyID    string `json:"faculty_id"`
	Credits      int    `json:"credits" validate:"required,min=1,max=10"`
	MaxStudents  int    `json:"max_students" validate:"required,min=1"`
	Year         int    `json:"year" validate:"omitempty,min=1,max=6"`
	Semester     int    `json:"semester" validate:"omitempty,min=1,max=12"`
}

func (nc *NewCourse) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an
// existing Course. Zero values leave the original untouched.
type UpdateCourse struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Credits     int    `json:"credits" validate:"omitempty,min=1,max=10"`
	MaxStudents int    `json:"max_students" validate:"omitempty,min=1"`
	Year        int    `json:"year" validate:"omitempty,min=1,max=6"`
	Semester    int    `json:"semester" validate:"omitempty,min=1,max=12"`
}

func (uc *UpdateCourse) Validate() error {
	uc.Name = core.CleanString(uc.Name)
	uc.Code = core.CleanString(uc.Code)
	uc.Description = core.CleanString(uc.Description)
	return core.Validate.Struct(uc)
}

// NewMaterial contains information needed to attach a CourseMaterial.
type NewMaterial struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	FileURL     string `json:"file_url" validate:"required,url"`
}

func (nm *NewMaterial) Validate() error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	return core.Validate.Struct(nm)
}

// NewTimetableSlot contains information needed to add a TimetableSlot.
type NewTimetableSlot struct {
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Room      string `json:"room"`
}

func (nt *NewTimetableSlot) Validate() error {
	nt.Room = core.CleanString(nt.Room)
	return core.Validate.Struct(nt)
}

// QueryFilter is an exact-match conjunction; absent fields are not
// constrained.
type QueryFilter struct {
	Search       string `query:"search"`
	DepartmentID string `query:"department"`
	FacultyID    string `query:"faculty"`
	Year         int    `query:"year"`
	Semester     int    `query:"semester"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
