package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tmalache/chuo/core/course"
)

type courseRepository struct {
	departments *table[course.Department]
	courses     *table[course.Course]
	enrollments *enrollmentTable
	materials   *table[course.CourseMaterial]
	slots       *table[course.TimetableSlot]
	students    *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{
		departments: db.departments,
		courses:     db.courses,
		enrollments: db.enrollments,
		materials:   db.materials,
		slots:       db.slots,
		students:    db,
	}
}

// Departments

func (repo *courseRepository) CreateDepartment(ctx context.Context, dept course.Department) (course.Department, error) {
	repo.departments.Lock()
	defer repo.departments.Unlock()
	dept.ID = uuid.NewString()
	repo.departments.rows[dept.ID] = &dept
	return dept, nil
}

func (repo *courseRepository) GetDepartmentByID(ctx context.Context, id string) (course.Department, error) {
	repo.departments.RLock()
	defer repo.departments.RUnlock()
	if dept, ok := repo.departments.rows[id]; ok {
		return *dept, nil
	}
	return course.Department{}, course.ErrDeptNotFound
}

func (repo *courseRepository) QueryDepartments(ctx context.Context) ([]course.Department, error) {
	repo.departments.RLock()
	defer repo.departments.RUnlock()
	depts := make([]course.Department, 0, len(repo.departments.rows))
	for _, dept := range repo.departments.rows {
		depts = append(depts, *dept)
	}
	sort.Slice(depts, func(i, j int) bool { return depts[i].Name < depts[j].Name })
	return depts, nil
}

func (repo *courseRepository) UpdateDepartment(ctx context.Context, dept course.Department) (course.Department, error) {
	repo.departments.Lock()
	defer repo.departments.Unlock()
	if _, ok := repo.departments.rows[dept.ID]; !ok {
		return course.Department{}, course.ErrDeptNotFound
	}
	repo.departments.rows[dept.ID] = &dept
	return dept, nil
}

func (repo *courseRepository) DeleteDepartment(ctx context.Context, id string) error {
	repo.departments.Lock()
	defer repo.departments.Unlock()
	if _, ok := repo.departments.rows[id]; !ok {
		return course.ErrDeptNotFound
	}
	delete(repo.departments.rows, id)
	return nil
}

// Courses

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.courses.Lock()
	defer repo.courses.Unlock()
	crs.ID = uuid.NewString()
	repo.courses.rows[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.courses.RLock()
	defer repo.courses.RUnlock()
	if crs, ok := repo.courses.rows[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter) ([]course.Course, error) {
	repo.courses.RLock()
	defer repo.courses.RUnlock()
	courses := make([]course.Course, 0, len(repo.courses.rows))
	for _, crs := range repo.courses.rows {
		if filter != nil {
			if filter.Search != "" && !containsFold(crs.Name, filter.Search) && !containsFold(crs.Code, filter.Search) {
				continue
			}
			if filter.DepartmentID != "" && crs.DepartmentID != filter.DepartmentID {
				continue
			}
			if filter.FacultyID != "" && (!crs.FacultyID.Valid || crs.FacultyID.String != filter.FacultyID) {
				continue
			}
			if filter.Year != 0 && crs.Year != filter.Year {
				continue
			}
			if filter.Semester != 0 && crs.Semester != filter.Semester {
				continue
			}
		}
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.courses.Lock()
	defer repo.courses.Unlock()
	if _, ok := repo.courses.rows[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.courses.rows[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.courses.Lock()
	defer repo.courses.Unlock()
	if _, ok := repo.courses.rows[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.courses.rows, id)

	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()
	delete(repo.enrollments.rows, id)
	return nil
}

// Enrollment

func (repo *courseRepository) EnrollStudent(ctx context.Context, courseID, studentID string, maxStudents int) error {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	enrolled := repo.enrollments.rows[courseID]
	if len(enrolled) >= maxStudents {
		return course.ErrCourseFull
	}
	for _, id := range enrolled {
		if id == studentID {
			return course.ErrAlreadyEnrolled
		}
	}
	repo.enrollments.rows[courseID] = append(enrolled, studentID)
	return nil
}

func (repo *courseRepository) UnenrollStudent(ctx context.Context, courseID, studentID string) error {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	enrolled := repo.enrollments.rows[courseID]
	for i, id := range enrolled {
		if id == studentID {
			repo.enrollments.rows[courseID] = append(enrolled[:i], enrolled[i+1:]...)
			return nil
		}
	}
	return course.ErrNotEnrolled
}

func (repo *courseRepository) GetEnrolledStudents(ctx context.Context, courseID string) ([]course.StudentRef, error) {
	repo.enrollments.RLock()
	ids := append([]string(nil), repo.enrollments.rows[courseID]...)
	repo.enrollments.RUnlock()

	repo.students.students.RLock()
	defer repo.students.students.RUnlock()

	refs := make([]course.StudentRef, 0, len(ids))
	for _, id := range ids {
		if std, ok := repo.students.students.rows[id]; ok {
			refs = append(refs, course.StudentRef{ID: std.ID, Name: std.Name, RegistrationNumber: std.RegistrationNumber})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (repo *courseRepository) GetCoursesForStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	repo.enrollments.RLock()
	var courseIDs []string
	for courseID, studentIDs := range repo.enrollments.rows {
		for _, id := range studentIDs {
			if id == studentID {
				courseIDs = append(courseIDs, courseID)
				break
			}
		}
	}
	repo.enrollments.RUnlock()

	repo.courses.RLock()
	defer repo.courses.RUnlock()
	courses := make([]course.Course, 0, len(courseIDs))
	for _, id := range courseIDs {
		if crs, ok := repo.courses.rows[id]; ok {
			courses = append(courses, *crs)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

func (repo *courseRepository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()
	for _, id := range repo.enrollments.rows[courseID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

// Projections

func (repo *courseRepository) GetDepartmentRef(ctx context.Context, id string) (course.DepartmentRef, error) {
	dept, err := repo.GetDepartmentByID(ctx, id)
	if err != nil {
		return course.DepartmentRef{}, err
	}
	return course.DepartmentRef{ID: dept.ID, Name: dept.Name, Code: dept.Code}, nil
}

func (repo *courseRepository) GetFacultyRef(ctx context.Context, id string) (course.FacultyRef, error) {
	repo.students.faculty.RLock()
	defer repo.students.faculty.RUnlock()
	if fac, ok := repo.students.faculty.rows[id]; ok {
		return course.FacultyRef{ID: fac.ID, Name: fac.Name, Designation: fac.Designation}, nil
	}
	return course.FacultyRef{}, course.ErrNotFound
}

// Materials

func (repo *courseRepository) CreateMaterial(ctx context.Context, mat course.CourseMaterial) (course.CourseMaterial, error) {
	repo.materials.Lock()
	defer repo.materials.Unlock()
	mat.ID = uuid.NewString()
	repo.materials.rows[mat.ID] = &mat
	return mat, nil
}

func (repo *courseRepository) GetMaterialByID(ctx context.Context, id string) (course.CourseMaterial, error) {
	repo.materials.RLock()
	defer repo.materials.RUnlock()
	if mat, ok := repo.materials.rows[id]; ok {
		return *mat, nil
	}
	return course.CourseMaterial{}, course.ErrMaterialNotFound
}

func (repo *courseRepository) QueryMaterials(ctx context.Context, courseID string) ([]course.CourseMaterial, error) {
	repo.materials.RLock()
	defer repo.materials.RUnlock()
	mats := make([]course.CourseMaterial, 0)
	for _, mat := range repo.materials.rows {
		if mat.CourseID == courseID {
			mats = append(mats, *mat)
		}
	}
	sort.Slice(mats, func(i, j int) bool { return mats[i].CreatedAt.After(mats[j].CreatedAt) })
	return mats, nil
}

func (repo *courseRepository) UpdateMaterial(ctx context.Context, mat course.CourseMaterial) (course.CourseMaterial, error) {
	repo.materials.Lock()
	defer repo.materials.Unlock()
	if _, ok := repo.materials.rows[mat.ID]; !ok {
		return course.CourseMaterial{}, course.ErrMaterialNotFound
	}
	repo.materials.rows[mat.ID] = &mat
	return mat, nil
}

func (repo *courseRepository) DeleteMaterial(ctx context.Context, id string) error {
	repo.materials.Lock()
	defer repo.materials.Unlock()
	if _, ok := repo.materials.rows[id]; !ok {
		return course.ErrMaterialNotFound
	}
	delete(repo.materials.rows, id)
	return nil
}

// Timetable

func (repo *courseRepository) CreateTimetableSlot(ctx context.Context, slot course.TimetableSlot) (course.TimetableSlot, error) {
	repo.slots.Lock()
	defer repo.slots.Unlock()
	slot.ID = uuid.NewString()
	repo.slots.rows[slot.ID] = &slot
	return slot, nil
}

func (repo *courseRepository) QueryTimetable(ctx context.Context, courseID string) ([]course.TimetableSlot, error) {
	repo.slots.RLock()
	defer repo.slots.RUnlock()
	slots := make([]course.TimetableSlot, 0)
	for _, slot := range repo.slots.rows {
		if slot.CourseID == courseID {
			slots = append(slots, *slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].StartTime < slots[j].StartTime
	})
	return slots, nil
}

func (repo *courseRepository) DeleteTimetableSlot(ctx context.Context, id string) error {
	repo.slots.Lock()
	defer repo.slots.Unlock()
	if _, ok := repo.slots.rows[id]; !ok {
		return course.ErrSlotNotFound
	}
	delete(repo.slots.rows, id)
	return nil
}
