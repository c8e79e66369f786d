package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tmalache/chuo/core/course"
)

type courseRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Code         string      `db:"code"`
	Description  string      `db:"description"`
	DepartmentID string      `db:"department_id"`
	FacultyID    null.String `db:"faculty_id"`
	Credits      int         `db:"credits"`
	MaxStudents  int         `db:"max_students"`
	Year         int         `db:"year"`
	Semester     int         `db:"semester"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r courseRow) toDomain() course.Course {
	return course.Course{
		ID:           r.ID,
		Name:         r.Name,
		Code:         r.Code,
		Description:  r.Description,
		DepartmentID: r.DepartmentID,
		FacultyID:    r.FacultyID,
		Credits:      r.Credits,
		MaxStudents:  r.MaxStudents,
		Year:         r.Year,
		Semester:     r.Semester,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

// Departments

func (repo *courseRepository) CreateDepartment(ctx context.Context, dept course.Department) (course.Department, error) {
	q := `
	INSERT INTO department (name, code, created_at, updated_at)
	VALUES ($1, $2, $3, $4)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q, dept.Name, dept.Code, dept.CreatedAt, dept.UpdatedAt).Scan(&dept.ID)
	if err != nil {
		return course.Department{}, errors.Wrap(err, "creating department")
	}
	return dept, nil
}

func (repo *courseRepository) GetDepartmentByID(ctx context.Context, id string) (course.Department, error) {
	var dept course.Department
	q := `SELECT id, name, code, created_at, updated_at FROM department WHERE id = $1`
	if err := repo.db.QueryRowxContext(ctx, q, id).
		Scan(&dept.ID, &dept.Name, &dept.Code, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return course.Department{}, course.ErrDeptNotFound
		}
		return course.Department{}, errors.Wrap(err, "getting department")
	}
	return dept, nil
}

func (repo *courseRepository) QueryDepartments(ctx context.Context) ([]course.Department, error) {
	depts := make([]course.Department, 0)
	q := `SELECT id, name, code, created_at, updated_at FROM department ORDER BY name ASC`
	rows, err := repo.db.QueryxContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "querying departments")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var dept course.Department
		if err = rows.Scan(&dept.ID, &dept.Name, &dept.Code, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning department")
		}
		depts = append(depts, dept)
	}
	return depts, rows.Err()
}

func (repo *courseRepository) UpdateDepartment(ctx context.Context, dept course.Department) (course.Department, error) {
	q := `UPDATE department SET name = $2, code = $3, updated_at = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, dept.ID, dept.Name, dept.Code, dept.UpdatedAt)
	if err != nil {
		return course.Department{}, errors.Wrap(err, "updating department")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Department{}, course.ErrDeptNotFound
	}
	return dept, nil
}

func (repo *courseRepository) DeleteDepartment(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM department WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting department")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrDeptNotFound
	}
	return nil
}

// Courses

const courseCols = `id, name, code, description, department_id, faculty_id, credits, max_students, year, semester, created_at, updated_at`

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	q := `
	INSERT INTO course (name, code, description, department_id, faculty_id, credits, max_students, year, semester, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		crs.Name, crs.Code, crs.Description, crs.DepartmentID, crs.FacultyID,
		crs.Credits, crs.MaxStudents, crs.Year, crs.Semester, crs.CreatedAt, crs.UpdatedAt,
	).Scan(&crs.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+courseCols+` FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.toDomain(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter) ([]course.Course, error) {
	q := `SELECT ` + courseCols + ` FROM course WHERE 1=1`
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			q += ` AND (name ILIKE $` + argN(len(args)) + ` OR code ILIKE $` + argN(len(args)) + `)`
		}
		if filter.DepartmentID != "" {
			args = append(args, filter.DepartmentID)
			q += ` AND department_id = $` + argN(len(args))
		}
		if filter.FacultyID != "" {
			args = append(args, filter.FacultyID)
			q += ` AND faculty_id = $` + argN(len(args))
		}
		if filter.Year != 0 {
			args = append(args, filter.Year)
			q += ` AND year = $` + argN(len(args))
		}
		if filter.Semester != 0 {
			args = append(args, filter.Semester)
			q += ` AND semester = $` + argN(len(args))
		}
	}
	q += ` ORDER BY code ASC`

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toDomain())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	q := `
	UPDATE course
	SET name = $2, code = $3, description = $4, faculty_id = $5, credits = $6,
	    max_students = $7, year = $8, semester = $9, updated_at = $10
	WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		crs.ID, crs.Name, crs.Code, crs.Description, crs.FacultyID,
		crs.Credits, crs.MaxStudents, crs.Year, crs.Semester, crs.UpdatedAt)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrNotFound
	}
	return nil
}

// Enrollment

// EnrollStudent locks the course row, re-checks capacity and duplication
// against the live count, and inserts, all in one transaction.
func (repo *courseRepository) EnrollStudent(ctx context.Context, courseID, studentID string, maxStudents int) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning enrollment tx")
	}
	defer func() { _ = tx.Rollback() }()

	// serialize enrollments on the course row; Postgres rejects FOR UPDATE
	// on aggregate queries, so the count below runs unlocked under it
	q := `SELECT max_students FROM course WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &maxStudents, q, courseID); err != nil {
		if err == sql.ErrNoRows {
			return course.ErrNotFound
		}
		return errors.Wrap(err, "locking course")
	}

	var enrolled int
	q = `SELECT COUNT(*) FROM course_students WHERE course_id = $1`
	if err = tx.GetContext(ctx, &enrolled, q, courseID); err != nil {
		return errors.Wrap(err, "counting enrollment")
	}
	if enrolled >= maxStudents {
		return course.ErrCourseFull
	}

	var dup int
	q = `SELECT COUNT(*) FROM course_students WHERE course_id = $1 AND student_id = $2`
	if err = tx.GetContext(ctx, &dup, q, courseID, studentID); err != nil {
		return errors.Wrap(err, "checking enrollment duplication")
	}
	if dup > 0 {
		return course.ErrAlreadyEnrolled
	}

	q = `INSERT INTO course_students (course_id, student_id) VALUES ($1, $2)`
	if _, err = tx.ExecContext(ctx, q, courseID, studentID); err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return errors.Wrap(tx.Commit(), "committing enrollment")
}

func (repo *courseRepository) UnenrollStudent(ctx context.Context, courseID, studentID string) error {
	q := `DELETE FROM course_students WHERE course_id = $1 AND student_id = $2`
	res, err := repo.db.ExecContext(ctx, q, courseID, studentID)
	if err != nil {
		return errors.Wrap(err, "unenrolling student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrNotEnrolled
	}
	return nil
}

func (repo *courseRepository) GetEnrolledStudents(ctx context.Context, courseID string) ([]course.StudentRef, error) {
	refs := make([]course.StudentRef, 0)
	q := `
	SELECT s.id, s.name, s.registration_number
	FROM student s
	JOIN course_students cs ON cs.student_id = s.id
	WHERE cs.course_id = $1
	ORDER BY s.name ASC`
	rows, err := repo.db.QueryxContext(ctx, q, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var ref course.StudentRef
		if err = rows.Scan(&ref.ID, &ref.Name, &ref.RegistrationNumber); err != nil {
			return nil, errors.Wrap(err, "scanning roster row")
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (repo *courseRepository) GetCoursesForStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	q := `
	SELECT c.id, c.name, c.code, c.description, c.department_id, c.faculty_id, c.credits,
	       c.max_students, c.year, c.semester, c.created_at, c.updated_at
	FROM course c
	JOIN course_students cs ON cs.course_id = c.id
	WHERE cs.student_id = $1
	ORDER BY c.code ASC`
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toDomain())
	}
	return courses, nil
}

func (repo *courseRepository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var count int
	q := `SELECT COUNT(*) FROM course_students WHERE course_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &count, q, courseID, studentID); err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return count > 0, nil
}

// Projections

func (repo *courseRepository) GetDepartmentRef(ctx context.Context, id string) (course.DepartmentRef, error) {
	var ref course.DepartmentRef
	q := `SELECT id, name, code FROM department WHERE id = $1`
	if err := repo.db.QueryRowxContext(ctx, q, id).Scan(&ref.ID, &ref.Name, &ref.Code); err != nil {
		if err == sql.ErrNoRows {
			return course.DepartmentRef{}, course.ErrDeptNotFound
		}
		return course.DepartmentRef{}, errors.Wrap(err, "getting department ref")
	}
	return ref, nil
}

func (repo *courseRepository) GetFacultyRef(ctx context.Context, id string) (course.FacultyRef, error) {
	var ref course.FacultyRef
	q := `SELECT id, name, designation FROM faculty WHERE id = $1`
	if err := repo.db.QueryRowxContext(ctx, q, id).Scan(&ref.ID, &ref.Name, &ref.Designation); err != nil {
		if err == sql.ErrNoRows {
			return course.FacultyRef{}, errors.New("faculty not found")
		}
		return course.FacultyRef{}, errors.Wrap(err, "getting faculty ref")
	}
	return ref, nil
}

// Materials

func (repo *courseRepository) CreateMaterial(ctx context.Context, mat course.CourseMaterial) (course.CourseMaterial, error) {
	q := `
	INSERT INTO course_material (course_id, title, description, file_url, uploaded_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		mat.CourseID, mat.Title, mat.Description, mat.FileURL, mat.UploadedBy, mat.CreatedAt,
	).Scan(&mat.ID)
	if err != nil {
		return course.CourseMaterial{}, errors.Wrap(err, "creating material")
	}
	return mat, nil
}

func (repo *courseRepository) GetMaterialByID(ctx context.Context, id string) (course.CourseMaterial, error) {
	var mat course.CourseMaterial
	q := `SELECT id, course_id, title, description, file_url, uploaded_by, created_at FROM course_material WHERE id = $1`
	if err := repo.db.QueryRowxContext(ctx, q, id).
		Scan(&mat.ID, &mat.CourseID, &mat.Title, &mat.Description, &mat.FileURL, &mat.UploadedBy, &mat.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return course.CourseMaterial{}, course.ErrMaterialNotFound
		}
		return course.CourseMaterial{}, errors.Wrap(err, "getting material")
	}
	return mat, nil
}

func (repo *courseRepository) QueryMaterials(ctx context.Context, courseID string) ([]course.CourseMaterial, error) {
	mats := make([]course.CourseMaterial, 0)
	q := `
	SELECT id, course_id, title, description, file_url, uploaded_by, created_at
	FROM course_material WHERE course_id = $1
	ORDER BY created_at DESC`
	rows, err := repo.db.QueryxContext(ctx, q, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying materials")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var mat course.CourseMaterial
		if err = rows.Scan(&mat.ID, &mat.CourseID, &mat.Title, &mat.Description, &mat.FileURL, &mat.UploadedBy, &mat.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning material")
		}
		mats = append(mats, mat)
	}
	return mats, rows.Err()
}

func (repo *courseRepository) UpdateMaterial(ctx context.Context, mat course.CourseMaterial) (course.CourseMaterial, error) {
	q := `UPDATE course_material SET title = $2, description = $3, file_url = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, mat.ID, mat.Title, mat.Description, mat.FileURL)
	if err != nil {
		return course.CourseMaterial{}, errors.Wrap(err, "updating material")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.CourseMaterial{}, course.ErrMaterialNotFound
	}
	return mat, nil
}

func (repo *courseRepository) DeleteMaterial(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course_material WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting material")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrMaterialNotFound
	}
	return nil
}

// Timetable

func (repo *courseRepository) CreateTimetableSlot(ctx context.Context, slot course.TimetableSlot) (course.TimetableSlot, error) {
	q := `
	INSERT INTO timetable_slot (course_id, day_of_week, start_time, end_time, room, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		slot.CourseID, slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.Room, slot.CreatedAt,
	).Scan(&slot.ID)
	if err != nil {
		return course.TimetableSlot{}, errors.Wrap(err, "creating timetable slot")
	}
	return slot, nil
}

func (repo *courseRepository) QueryTimetable(ctx context.Context, courseID string) ([]course.TimetableSlot, error) {
	slots := make([]course.TimetableSlot, 0)
	q := `
	SELECT id, course_id, day_of_week, start_time, end_time, room, created_at
	FROM timetable_slot WHERE course_id = $1
	ORDER BY day_of_week ASC, start_time ASC`
	rows, err := repo.db.QueryxContext(ctx, q, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying timetable")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var slot course.TimetableSlot
		if err = rows.Scan(&slot.ID, &slot.CourseID, &slot.DayOfWeek, &slot.StartTime, &slot.EndTime, &slot.Room, &slot.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning timetable slot")
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (repo *courseRepository) DeleteTimetableSlot(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM timetable_slot WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting timetable slot")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrSlotNotFound
	}
	return nil
}
