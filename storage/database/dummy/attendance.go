package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tmalache/chuo/core/attendance"
)

type attendanceRepository struct {
	db *table[attendance.Record]
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, r := range repo.db.rows {
		if r.StudentID == rec.StudentID && r.CourseID == rec.CourseID &&
			r.Date.Equal(rec.Date) && r.ClassType == rec.ClassType {
			return attendance.Record{}, attendance.ErrAlreadyMarked
		}
	}
	rec.ID = uuid.NewString()
	repo.db.rows[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if rec, ok := repo.db.rows[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, studentID, courseID string, date time.Time, classType string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	for _, rec := range repo.db.rows {
		if rec.StudentID == studentID && rec.CourseID == courseID &&
			rec.Date.Equal(date) && rec.ClassType == classType {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) QueryByCourse(ctx context.Context, courseID string, from, to time.Time) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.rows {
		if rec.CourseID != courseID {
			continue
		}
		if !from.IsZero() && rec.Date.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Date.After(to) {
			continue
		}
		records = append(records, *rec)
	}
	// date ASC, then student id ASC
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].StudentID < records[j].StudentID
	})
	return records, nil
}

func (repo *attendanceRepository) QueryByStudentCourse(ctx context.Context, studentID, courseID string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.rows {
		if rec.StudentID == studentID && rec.CourseID == courseID {
			records = append(records, *rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func (repo *attendanceRepository) QueryByStudent(ctx context.Context, studentID string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.rows {
		if rec.StudentID == studentID {
			records = append(records, *rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.rows[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	repo.db.rows[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) DeleteRecord(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.rows[id]; !ok {
		return attendance.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}
