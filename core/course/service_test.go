package course_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/course"
	"github.com/tmalache/chuo/core/user"
	logsvc "github.com/tmalache/chuo/services/logger"
	dummydb "github.com/tmalache/chuo/storage/database/dummy"
)

type testDirectory struct {
	students user.StudentRepository
}

func (d testDirectory) GetStudentRef(ctx context.Context, id string) (course.StudentRef, error) {
	std, err := d.students.GetStudentByID(ctx, id)
	if err != nil {
		return course.StudentRef{}, err
	}
	return course.StudentRef{ID: std.ID, Name: std.Name, RegistrationNumber: std.RegistrationNumber}, nil
}

type fixture struct {
	svc      *course.Service
	students user.StudentRepository
	faculty  user.FacultyRepository
}

func setup(t *testing.T) *fixture {
	db, err := dummydb.Open()
	require.NoError(t, err)

	students := dummydb.NewStudentRepository(db)
	logger := logsvc.NewPlainLogger(log.New(io.Discard, "", 0))
	return &fixture{
		svc:      course.NewService(dummydb.NewCourseRepository(db), testDirectory{students}, logger),
		students: students,
		faculty:  dummydb.NewFacultyRepository(db),
	}
}

func (f *fixture) addStudent(t *testing.T, name, email string) user.Student {
	std, err := f.students.CreateStudent(context.Background(), user.Student{
		Account: user.Account{Name: name, Email: email, Role: user.RoleStudent},
	})
	require.NoError(t, err)
	return std
}

func (f *fixture) addFaculty(t *testing.T, name, email string) user.Faculty {
	fac, err := f.faculty.CreateFaculty(context.Background(), user.Faculty{
		Account: user.Account{Name: name, Email: email, Role: user.RoleFaculty},
	})
	require.NoError(t, err)
	return fac
}

func (f *fixture) addCourse(t *testing.T, deptID string, maxStudents int) course.Course {
	crs, err := f.svc.CreateCourse(context.Background(), course.NewCourse{
		Name:         "Algorithms",
		Code:         "CS201",
		DepartmentID: deptID,
		Credits:      4,
		MaxStudents:  maxStudents,
		Year:         2,
		Semester:     1,
	})
	require.NoError(t, err)
	return crs
}

func (f *fixture) addDepartment(t *testing.T) course.Department {
	dept, err := f.svc.CreateDepartment(context.Background(), course.NewDepartment{Name: "Computer Science", Code: "CS"})
	require.NoError(t, err)
	return dept
}

func TestService_CreateCourse(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	dept := f.addDepartment(t)

	t.Run("unknown department", func(t *testing.T) {
		_, err := f.svc.CreateCourse(ctx, course.NewCourse{
			Name: "Ghost", Code: "GH1", DepartmentID: "nope", Credits: 3, MaxStudents: 10, Year: 1, Semester: 1,
		})
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("unknown faculty", func(t *testing.T) {
		_, err := f.svc.CreateCourse(ctx, course.NewCourse{
			Name: "Ghost", Code: "GH1", DepartmentID: dept.ID, FacultyID: "nope",
			Credits: 3, MaxStudents: 10, Year: 1, Semester: 1,
		})
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("ok with faculty", func(t *testing.T) {
		fac := f.addFaculty(t, "Prof X", "profx@test.cd")
		crs, err := f.svc.CreateCourse(ctx, course.NewCourse{
			Name: "Algorithms", Code: "CS201", DepartmentID: dept.ID, FacultyID: fac.ID,
			Credits: 4, MaxStudents: 30, Year: 2, Semester: 1,
		})
		require.NoError(t, err)
		assert.True(t, crs.FacultyID.Valid)
		assert.Equal(t, fac.ID, crs.FacultyID.String)
	})
}

func TestService_Enroll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	dept := f.addDepartment(t)
	crs := f.addCourse(t, dept.ID, 2)
	alice := f.addStudent(t, "Alice", "alice@test.cd")
	bob := f.addStudent(t, "Bob", "bob@test.cd")
	carol := f.addStudent(t, "Carol", "carol@test.cd")

	require.NoError(t, f.svc.Enroll(ctx, crs.ID, alice.ID))

	t.Run("duplicate enrollment", func(t *testing.T) {
		err := f.svc.Enroll(ctx, crs.ID, alice.ID)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Error(), course.ErrAlreadyEnrolled.Error())
	})

	t.Run("unknown student", func(t *testing.T) {
		err := f.svc.Enroll(ctx, crs.ID, "nope")
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("unknown course", func(t *testing.T) {
		err := f.svc.Enroll(ctx, "nope", alice.ID)
		assert.Equal(t, course.ErrNotFound, err)
	})

	t.Run("capacity", func(t *testing.T) {
		require.NoError(t, f.svc.Enroll(ctx, crs.ID, bob.ID))

		err := f.svc.Enroll(ctx, crs.ID, carol.ID)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Error(), course.ErrCourseFull.Error())
	})

	t.Run("roster", func(t *testing.T) {
		roster, err := f.svc.GetRoster(ctx, crs.ID)
		require.NoError(t, err)
		require.Len(t, roster, 2)
		assert.Equal(t, "Alice", roster[0].Name)
		assert.Equal(t, "Bob", roster[1].Name)
	})

	t.Run("unenroll frees a seat", func(t *testing.T) {
		require.NoError(t, f.svc.Unenroll(ctx, crs.ID, bob.ID))
		assert.NoError(t, f.svc.Enroll(ctx, crs.ID, carol.ID))

		err := f.svc.Unenroll(ctx, crs.ID, bob.ID)
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestService_AssignFaculty(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	dept := f.addDepartment(t)
	crs := f.addCourse(t, dept.ID, 10)
	fac := f.addFaculty(t, "Prof X", "profx@test.cd")

	crs, err := f.svc.AssignFaculty(ctx, crs.ID, fac.ID)
	require.NoError(t, err)
	assert.Equal(t, fac.ID, crs.FacultyID.String)

	owns, err := f.svc.OwnsCourse(ctx, crs.ID, fac.ID)
	require.NoError(t, err)
	assert.True(t, owns)

	owns, err = f.svc.OwnsCourse(ctx, crs.ID, "other")
	require.NoError(t, err)
	assert.False(t, owns)

	// empty id clears the assignment
	crs, err = f.svc.AssignFaculty(ctx, crs.ID, "")
	require.NoError(t, err)
	assert.False(t, crs.FacultyID.Valid)
}

func TestService_Materials(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	dept := f.addDepartment(t)
	crs := f.addCourse(t, dept.ID, 10)
	owner := f.addFaculty(t, "Prof X", "profx@test.cd")
	other := f.addFaculty(t, "Prof Y", "profy@test.cd")
	_, err := f.svc.AssignFaculty(ctx, crs.ID, owner.ID)
	require.NoError(t, err)

	nm := course.NewMaterial{Title: "Week 1 notes", FileURL: "https://files.test.cd/w1.pdf"}

	_, err = f.svc.AddMaterial(ctx, crs.ID, other.ID, nm)
	assert.Equal(t, course.ErrNotOwner, err)

	mat, err := f.svc.AddMaterial(ctx, crs.ID, owner.ID, nm)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, mat.UploadedBy)

	_, err = f.svc.UpdateMaterial(ctx, mat.ID, other.ID, nm)
	assert.Equal(t, course.ErrNotOwner, err)

	err = f.svc.DeleteMaterial(ctx, mat.ID, owner.ID)
	require.NoError(t, err)

	mats, err := f.svc.GetMaterials(ctx, crs.ID)
	require.NoError(t, err)
	assert.Empty(t, mats)
}

func TestService_Timetable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	dept := f.addDepartment(t)
	algo := f.addCourse(t, dept.ID, 10)

	calc, err := f.svc.CreateCourse(ctx, course.NewCourse{
		Name: "Calculus", Code: "MA101", DepartmentID: dept.ID, Credits: 3, MaxStudents: 10, Year: 1, Semester: 1,
	})
	require.NoError(t, err)

	_, err = f.svc.AddTimetableSlot(ctx, algo.ID, course.NewTimetableSlot{
		DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00", Room: "B12",
	})
	require.NoError(t, err)
	_, err = f.svc.AddTimetableSlot(ctx, calc.ID, course.NewTimetableSlot{
		DayOfWeek: 3, StartTime: "08:00", EndTime: "10:00", Room: "A1",
	})
	require.NoError(t, err)

	std := f.addStudent(t, "Alice", "alice@test.cd")
	require.NoError(t, f.svc.Enroll(ctx, algo.ID, std.ID))
	require.NoError(t, f.svc.Enroll(ctx, calc.ID, std.ID))

	slots, err := f.svc.GetTimetableForStudent(ctx, std.ID)
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	// unenrolled student sees an empty timetable, not an error
	slots, err = f.svc.GetTimetableForStudent(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, slots)
}
