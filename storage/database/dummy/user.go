package dummydb

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tmalache/chuo/core/user"
)

// Admins

type adminRepository struct {
	db *table[user.Admin]
}

var _ user.AdminRepository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(db *DB) user.AdminRepository {
	return &adminRepository{db: db.admins}
}

func (repo *adminRepository) GetAccountByID(ctx context.Context, id string) (user.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if adm, ok := repo.db.rows[id]; ok {
		return adm.Account, nil
	}
	return user.Account{}, user.ErrNotFound
}

func (repo *adminRepository) GetAccountByEmail(ctx context.Context, email string) (user.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	for _, adm := range repo.db.rows {
		if adm.Email == email {
			return adm.Account, nil
		}
	}
	return user.Account{}, user.ErrNotFound
}

func (repo *adminRepository) SetLastLogin(ctx context.Context, id string, t time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	adm, ok := repo.db.rows[id]
	if !ok {
		return user.ErrNotFound
	}
	adm.LastLogin = t
	return nil
}

func (repo *adminRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	adm, ok := repo.db.rows[id]
	if !ok {
		return user.ErrNotFound
	}
	adm.PasswordHash = hash
	return nil
}

func (repo *adminRepository) CreateAdmin(ctx context.Context, adm user.Admin) (user.Admin, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	adm.ID = uuid.NewString()
	repo.db.rows[adm.ID] = &adm
	return adm, nil
}

func (repo *adminRepository) GetAdminByEmail(ctx context.Context, email string) (user.Admin, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	for _, adm := range repo.db.rows {
		if adm.Email == email {
			return *adm, nil
		}
	}
	return user.Admin{}, user.ErrNotFound
}

// Faculty

type facultyRepository struct {
	db *table[user.Faculty]
}

var _ user.FacultyRepository = (*facultyRepository)(nil) // interface compliance check

func NewFacultyRepository(db *DB) user.FacultyRepository {
	return &facultyRepository{db: db.faculty}
}

func (repo *facultyRepository) GetAccountByID(ctx context.Context, id string) (user.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if fac, ok := repo.db.rows[id]; ok {
		return fac.Account, nil
	}
	return user.Account{}, user.ErrNotFound
}

func (repo *facultyRepository) GetAccountByEmail(ctx context.Context, email string) (user.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	for _, fac := range repo.db.rows {
		if fac.Email == email {
			return fac.Account, nil
		}
	}
	return user.Account{}, user.ErrNotFound
}

func (repo *facultyRepository) SetLastLogin(ctx context.Context, id string, t time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	fac, ok := repo.db.rows[id]
	if !ok {
		return user.ErrNotFound
	}
	fac.LastLogin = t
	return nil
}

func (repo *facultyRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	fac, ok := repo.db.rows[id]
	if !ok {
		return user.ErrNotFound
	}
	fac.PasswordHash = hash
	return nil
}

func (repo *facultyRepository) CheckFacultyEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()
	for _, fac := range repo.db.rows {
		if fac.Email == email && !contains(excludedIDs, fac.ID) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *facultyRepository) CreateFaculty(ctx context.Context, fac user.Faculty) (user.Faculty, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	fac.ID = uuid.NewString()
	repo.db.rows[fac.ID] = &fac
	return fac, nil
}

func (repo *facultyRepository) GetFacultyByID(ctx context.Context, id string) (user.Faculty, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if fac, ok := repo.db.rows[id]; ok {
		return *fac, nil
	}
	return user.Faculty{}, user.ErrNotFound
}

func (repo *facultyRepository) QueryFaculty(ctx context.Context, filter *user.FacultyQueryFilter) ([]user.Faculty, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	faculty := make([]user.Faculty, 0, len(repo.db.rows))
	for _, fac := range repo.db.rows {
		if filter != nil {
			if filter.Search != "" && !containsFold(fac.Name, filter.Search) && !containsFold(fac.Email, filter.Search) {
				continue
			}
			if filter.DepartmentID != "" && fac.DepartmentID != filter.DepartmentID {
				continue
			}
			if filter.Designation != "" && fac.Designation != filter.Designation {
				continue
			}
		}
		faculty = append(faculty, *fac)
	}
	return faculty, nil
}

func (repo *facultyRepository) UpdateFaculty(ctx context.Context, fac user.Faculty) (user.Faculty, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.rows[fac.ID]; !ok {
		return user.Faculty{}, user.ErrNotFound
	}
	repo.db.rows[fac.ID] = &fac
	return fac, nil
}

func (repo *facultyRepository) DeleteFaculty(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.rows[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}

// Students

type studentRepository struct {
	db *table[user.Student]
}

var _ user.StudentRepository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) user.StudentRepository {
	return &studentRepository{db: db.students}
}

func (repo *studentRepository) GetAccountByID(ctx context.Context, id string) (user.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if std, ok := repo.db.rows[id]; ok {
		return std.Account, nil
	}
	return user.Account{}, user.ErrNotFound
}

func (repo *studentRepository) GetAccountByEmail(ctx context.Context, email string) (user.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	for _, std := range repo.db.rows {
		if std.Email == email {
			return std.Account, nil
		}
	}
	return user.Account{}, user.ErrNotFound
}

func (repo *studentRepository) SetLastLogin(ctx context.Context, id string, t time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	std, ok := repo.db.rows[id]
	if !ok {
		return user.ErrNotFound
	}
	std.LastLogin = t
	return nil
}

func (repo *studentRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	std, ok := repo.db.rows[id]
	if !ok {
		return user.ErrNotFound
	}
	std.PasswordHash = hash
	return nil
}

func (repo *studentRepository) CheckStudentEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()
	for _, std := range repo.db.rows {
		if std.Email == email && !contains(excludedIDs, std.ID) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std user.Student) (user.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	std.ID = uuid.NewString()
	repo.db.rows[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (user.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if std, ok := repo.db.rows[id]; ok {
		return *std, nil
	}
	return user.Student{}, user.ErrNotFound
}

func (repo *studentRepository) GetStudentByEmail(ctx context.Context, email string) (user.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	for _, std := range repo.db.rows {
		if std.Email == email {
			return *std, nil
		}
	}
	return user.Student{}, user.ErrNotFound
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *user.StudentQueryFilter) ([]user.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]user.Student, 0, len(repo.db.rows))
	for _, std := range repo.db.rows {
		if filter != nil {
			if filter.Search != "" && !containsFold(std.Name, filter.Search) &&
				!containsFold(std.Email, filter.Search) && !containsFold(std.RegistrationNumber, filter.Search) {
				continue
			}
			if filter.Status != "" && std.RegistrationStatus != filter.Status {
				continue
			}
			if filter.DepartmentID != "" && std.DepartmentID != filter.DepartmentID {
				continue
			}
			if filter.Year != 0 && std.Year != filter.Year {
				continue
			}
			if filter.Semester != 0 && std.Semester != filter.Semester {
				continue
			}
		}
		students = append(students, *std)
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std user.Student) (user.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.rows[std.ID]; !ok {
		return user.Student{}, user.ErrNotFound
	}
	repo.db.rows[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) SetRegistrationStatus(ctx context.Context, id string, status user.RegistrationStatus) (user.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	std, ok := repo.db.rows[id]
	if !ok {
		return user.Student{}, user.ErrNotFound
	}
	std.RegistrationStatus = status
	std.UpdatedAt = time.Now().UTC()
	return *std, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.rows[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}

func contains(vals []string, v string) bool {
	for _, val := range vals {
		if val == v {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
