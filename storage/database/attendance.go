package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/attendance"
)

// sessionOrdering is the contract order for course attendance listings.
var sessionOrdering = []core.DBOrdering{
	{Field: "date", Ascending: true},
	{Field: "student_id", Ascending: true},
}

type attendanceRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	CourseID  string    `db:"course_id"`
	Date      time.Time `db:"date"`
	ClassType string    `db:"class_type"`
	Status    string    `db:"status"`
	MarkedBy  string    `db:"marked_by"`
	CreatedAt time.Time `db:"created_at"`
}

func (r attendanceRow) toDomain() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		Date:      r.Date,
		ClassType: r.ClassType,
		Status:    attendance.Status(r.Status),
		MarkedBy:  r.MarkedBy,
		CreatedAt: r.CreatedAt,
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

const attendanceCols = `id, student_id, course_id, date, class_type, status, marked_by, created_at`

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := `
	INSERT INTO attendance (student_id, course_id, date, class_type, status, marked_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		rec.StudentID, rec.CourseID, rec.Date, rec.ClassType, string(rec.Status), rec.MarkedBy, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		// the unique index catches the mark race
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == "23505" {
			return attendance.Record{}, attendance.ErrAlreadyMarked
		}
		return attendance.Record{}, errors.Wrap(err, "creating attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	var row attendanceRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+attendanceCols+` FROM attendance WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return row.toDomain(), nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, studentID, courseID string, date time.Time, classType string) (attendance.Record, error) {
	var row attendanceRow
	q := `SELECT ` + attendanceCols + ` FROM attendance WHERE student_id = $1 AND course_id = $2 AND date = $3 AND class_type = $4`
	if err := repo.db.GetContext(ctx, &row, q, studentID, courseID, date, classType); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return row.toDomain(), nil
}

func (repo *attendanceRepository) QueryByCourse(ctx context.Context, courseID string, from, to time.Time) ([]attendance.Record, error) {
	q := `SELECT ` + attendanceCols + ` FROM attendance WHERE course_id = $1`
	args := []interface{}{courseID}
	if !from.IsZero() {
		args = append(args, from)
		q += ` AND date >= $` + argN(len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		q += ` AND date <= $` + argN(len(args))
	}
	q += core.OrderBy(sessionOrdering...)

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying course attendance")
	}
	return toRecords(rows), nil
}

func (repo *attendanceRepository) QueryByStudentCourse(ctx context.Context, studentID, courseID string) ([]attendance.Record, error) {
	q := `SELECT ` + attendanceCols + ` FROM attendance WHERE student_id = $1 AND course_id = $2 ORDER BY date ASC`
	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID, courseID); err != nil {
		return nil, errors.Wrap(err, "querying student course attendance")
	}
	return toRecords(rows), nil
}

func (repo *attendanceRepository) QueryByStudent(ctx context.Context, studentID string) ([]attendance.Record, error) {
	q := `SELECT ` + attendanceCols + ` FROM attendance WHERE student_id = $1 ORDER BY date ASC`
	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student attendance")
	}
	return toRecords(rows), nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE attendance SET status = $2 WHERE id = $1`, rec.ID, string(rec.Status))
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return rec, nil
}

func (repo *attendanceRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func toRecords(rows []attendanceRow) []attendance.Record {
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records
}
