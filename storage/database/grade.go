package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/grade"
)

// gradeOrdering is the contract order for grade listings.
var gradeOrdering = core.DBOrdering{Field: "graded_at"}

type gradeRow struct {
	ID            string    `db:"id"`
	StudentID     string    `db:"student_id"`
	CourseID      string    `db:"course_id"`
	Year          int       `db:"year"`
	Semester      int       `db:"semester"`
	Letter        string    `db:"letter"`
	GradePoints   float64   `db:"grade_points"`
	Credits       int       `db:"credits"`
	MarksObtained float64   `db:"marks_obtained"`
	TotalMarks    float64   `db:"total_marks"`
	Status        string    `db:"status"`
	GradedBy      string    `db:"graded_by"`
	GradedAt      time.Time `db:"graded_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r gradeRow) toDomain() grade.Grade {
	return grade.Grade{
		ID:            r.ID,
		StudentID:     r.StudentID,
		CourseID:      r.CourseID,
		Year:          r.Year,
		Semester:      r.Semester,
		Letter:        r.Letter,
		GradePoints:   r.GradePoints,
		Credits:       r.Credits,
		MarksObtained: r.MarksObtained,
		TotalMarks:    r.TotalMarks,
		Status:        grade.Status(r.Status),
		GradedBy:      r.GradedBy,
		GradedAt:      r.GradedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db}
}

const gradeCols = `id, student_id, course_id, year, semester, letter, grade_points, credits, marks_obtained, total_marks, status, graded_by, graded_at, updated_at`

func (repo *gradeRepository) CreateGrade(ctx context.Context, grd grade.Grade) (grade.Grade, error) {
	q := `
	INSERT INTO grade (student_id, course_id, year, semester, letter, grade_points, credits, marks_obtained, total_marks, status, graded_by, graded_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		grd.StudentID, grd.CourseID, grd.Year, grd.Semester, grd.Letter, grd.GradePoints,
		grd.Credits, grd.MarksObtained, grd.TotalMarks, string(grd.Status), grd.GradedBy, grd.GradedAt, grd.UpdatedAt,
	).Scan(&grd.ID)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "creating grade")
	}
	return grd, nil
}

func (repo *gradeRepository) GetGradeByID(ctx context.Context, id string) (grade.Grade, error) {
	var row gradeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+gradeCols+` FROM grade WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "getting grade")
	}
	return row.toDomain(), nil
}

func (repo *gradeRepository) GetGradeForStudentCourse(ctx context.Context, studentID, courseID string, year, semester int) (grade.Grade, error) {
	var row gradeRow
	q := `SELECT ` + gradeCols + ` FROM grade WHERE student_id = $1 AND course_id = $2 AND year = $3 AND semester = $4`
	if err := repo.db.GetContext(ctx, &row, q, studentID, courseID, year, semester); err != nil {
		if err == sql.ErrNoRows {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "getting grade for student course")
	}
	return row.toDomain(), nil
}

func (repo *gradeRepository) QueryGradesByCourse(ctx context.Context, courseID string) ([]grade.Grade, error) {
	q := `SELECT ` + gradeCols + ` FROM grade WHERE course_id = $1` + core.OrderBy(gradeOrdering)
	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying course grades")
	}
	return toGrades(rows), nil
}

func (repo *gradeRepository) QueryGradesByStudent(ctx context.Context, studentID string, year, semester int) ([]grade.Grade, error) {
	q := `SELECT ` + gradeCols + ` FROM grade WHERE student_id = $1`
	args := []interface{}{studentID}
	if year != 0 {
		args = append(args, year)
		q += ` AND year = $` + argN(len(args))
	}
	if semester != 0 {
		args = append(args, semester)
		q += ` AND semester = $` + argN(len(args))
	}
	q += core.OrderBy(gradeOrdering)

	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying student grades")
	}
	return toGrades(rows), nil
}

func (repo *gradeRepository) UpdateGrade(ctx context.Context, grd grade.Grade) (grade.Grade, error) {
	q := `
	UPDATE grade
	SET letter = $2, grade_points = $3, marks_obtained = $4, total_marks = $5, status = $6, updated_at = $7
	WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		grd.ID, grd.Letter, grd.GradePoints, grd.MarksObtained, grd.TotalMarks, string(grd.Status), grd.UpdatedAt)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return grade.Grade{}, grade.ErrNotFound
	}
	return grd, nil
}

func (repo *gradeRepository) DeleteGrade(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM grade WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return grade.ErrNotFound
	}
	return nil
}

func toGrades(rows []gradeRow) []grade.Grade {
	grades := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.toDomain())
	}
	return grades
}
