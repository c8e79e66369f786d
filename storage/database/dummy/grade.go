package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tmalache/chuo/core/grade"
)

type gradeRepository struct {
	db *table[grade.Grade]
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db.grades}
}

func (repo *gradeRepository) CreateGrade(ctx context.Context, grd grade.Grade) (grade.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	grd.ID = uuid.NewString()
	repo.db.rows[grd.ID] = &grd
	return grd, nil
}

func (repo *gradeRepository) GetGradeByID(ctx context.Context, id string) (grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if grd, ok := repo.db.rows[id]; ok {
		return *grd, nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) GetGradeForStudentCourse(ctx context.Context, studentID, courseID string, year, semester int) (grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	for _, grd := range repo.db.rows {
		if grd.StudentID == studentID && grd.CourseID == courseID && grd.Year == year && grd.Semester == semester {
			return *grd, nil
		}
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) QueryGradesByCourse(ctx context.Context, courseID string) ([]grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	grades := make([]grade.Grade, 0)
	for _, grd := range repo.db.rows {
		if grd.CourseID == courseID {
			grades = append(grades, *grd)
		}
	}
	sortNewestFirst(grades)
	return grades, nil
}

func (repo *gradeRepository) QueryGradesByStudent(ctx context.Context, studentID string, year, semester int) ([]grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	grades := make([]grade.Grade, 0)
	for _, grd := range repo.db.rows {
		if grd.StudentID != studentID {
			continue
		}
		if year != 0 && grd.Year != year {
			continue
		}
		if semester != 0 && grd.Semester != semester {
			continue
		}
		grades = append(grades, *grd)
	}
	sortNewestFirst(grades)
	return grades, nil
}

func (repo *gradeRepository) UpdateGrade(ctx context.Context, grd grade.Grade) (grade.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.rows[grd.ID]; !ok {
		return grade.Grade{}, grade.ErrNotFound
	}
	repo.db.rows[grd.ID] = &grd
	return grd, nil
}

func (repo *gradeRepository) DeleteGrade(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.rows[id]; !ok {
		return grade.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}

func sortNewestFirst(grades []grade.Grade) {
	sort.Slice(grades, func(i, j int) bool { return grades[i].GradedAt.After(grades[j].GradedAt) })
}
