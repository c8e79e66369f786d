package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tmalache/chuo/core/user"
)

type accountRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	LastLogin    null.Time `db:"last_login"`
}

func (r accountRow) toDomain() user.Account {
	acct := user.Account{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
	}
	if r.LastLogin.Valid {
		acct.LastLogin = r.LastLogin.Time
	}
	return acct
}

// accountStore implements the credential view queries shared by the
// three principal tables.
type accountStore struct {
	db    *sqlx.DB
	table string
}

func (s accountStore) GetAccountByID(ctx context.Context, id string) (user.Account, error) {
	var row accountRow
	q := `SELECT id, name, email, password_hash, last_login FROM ` + s.table + ` WHERE id = $1`
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return user.Account{}, user.ErrNotFound
		}
		return user.Account{}, errors.Wrapf(err, "getting %s account", s.table)
	}
	return row.toDomain(), nil
}

func (s accountStore) GetAccountByEmail(ctx context.Context, email string) (user.Account, error) {
	var row accountRow
	q := `SELECT id, name, email, password_hash, last_login FROM ` + s.table + ` WHERE email = $1`
	if err := s.db.GetContext(ctx, &row, q, email); err != nil {
		if err == sql.ErrNoRows {
			return user.Account{}, user.ErrNotFound
		}
		return user.Account{}, errors.Wrapf(err, "getting %s account by email", s.table)
	}
	return row.toDomain(), nil
}

func (s accountStore) SetLastLogin(ctx context.Context, id string, t time.Time) error {
	q := `UPDATE ` + s.table + ` SET last_login = $2 WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, q, id, t); err != nil {
		return errors.Wrapf(err, "setting %s last_login", s.table)
	}
	return nil
}

func (s accountStore) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	q := `UPDATE ` + s.table + ` SET password_hash = $2, updated_at = now() WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, q, id, hash); err != nil {
		return errors.Wrapf(err, "updating %s password", s.table)
	}
	return nil
}

// Admins

type adminRepository struct {
	accountStore
}

var _ user.AdminRepository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(db *sqlx.DB) user.AdminRepository {
	return &adminRepository{accountStore{db: db, table: "admin"}}
}

func (repo *adminRepository) CreateAdmin(ctx context.Context, adm user.Admin) (user.Admin, error) {
	q := `
	INSERT INTO admin (name, email, password_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q, adm.Name, adm.Email, adm.PasswordHash, adm.CreatedAt, adm.UpdatedAt).Scan(&adm.ID)
	if err != nil {
		return user.Admin{}, errors.Wrap(err, "creating admin")
	}
	return adm, nil
}

func (repo *adminRepository) GetAdminByEmail(ctx context.Context, email string) (user.Admin, error) {
	acct, err := repo.GetAccountByEmail(ctx, email)
	if err != nil {
		return user.Admin{}, err
	}
	acct.Role = user.RoleAdmin
	return user.Admin{Account: acct}, nil
}

// Faculty

type facultyRow struct {
	accountRow
	DepartmentID null.String `db:"department_id"`
	Designation  string      `db:"designation"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r facultyRow) toDomain() user.Faculty {
	acct := r.accountRow.toDomain()
	acct.Role = user.RoleFaculty
	return user.Faculty{
		Account:      acct,
		DepartmentID: r.DepartmentID.String,
		Designation:  r.Designation,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type facultyRepository struct {
	accountStore
}

var _ user.FacultyRepository = (*facultyRepository)(nil) // interface compliance check

func NewFacultyRepository(db *sqlx.DB) user.FacultyRepository {
	return &facultyRepository{accountStore{db: db, table: "faculty"}}
}

const facultyCols = `id, name, email, password_hash, last_login, department_id, designation, created_at, updated_at`

func (repo *facultyRepository) CheckFacultyEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	q := `SELECT COUNT(*) FROM faculty WHERE email = $1`
	args := []interface{}{email}
	if len(excludedIDs) > 0 {
		q += ` AND id != ALL($2)`
		args = append(args, pqStringArray(excludedIDs))
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking faculty email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *facultyRepository) CreateFaculty(ctx context.Context, fac user.Faculty) (user.Faculty, error) {
	q := `
	INSERT INTO faculty (name, email, password_hash, department_id, designation, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		fac.Name, fac.Email, fac.PasswordHash, nullStr(fac.DepartmentID), fac.Designation, fac.CreatedAt, fac.UpdatedAt,
	).Scan(&fac.ID)
	if err != nil {
		return user.Faculty{}, errors.Wrap(err, "creating faculty")
	}
	return fac, nil
}

func (repo *facultyRepository) GetFacultyByID(ctx context.Context, id string) (user.Faculty, error) {
	var row facultyRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+facultyCols+` FROM faculty WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return user.Faculty{}, user.ErrNotFound
		}
		return user.Faculty{}, errors.Wrap(err, "getting faculty")
	}
	return row.toDomain(), nil
}

func (repo *facultyRepository) QueryFaculty(ctx context.Context, filter *user.FacultyQueryFilter) ([]user.Faculty, error) {
	q := `SELECT ` + facultyCols + ` FROM faculty WHERE 1=1`
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			q += ` AND (name ILIKE $` + argN(len(args)) + ` OR email ILIKE $` + argN(len(args)) + `)`
		}
		if filter.DepartmentID != "" {
			args = append(args, filter.DepartmentID)
			q += ` AND department_id = $` + argN(len(args))
		}
		if filter.Designation != "" {
			args = append(args, filter.Designation)
			q += ` AND designation = $` + argN(len(args))
		}
	}
	q += ` ORDER BY name ASC`

	var rows []facultyRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying faculty")
	}
	faculty := make([]user.Faculty, 0, len(rows))
	for _, row := range rows {
		faculty = append(faculty, row.toDomain())
	}
	return faculty, nil
}

func (repo *facultyRepository) UpdateFaculty(ctx context.Context, fac user.Faculty) (user.Faculty, error) {
	q := `
	UPDATE faculty
	SET name = $2, email = $3, password_hash = $4, department_id = $5, designation = $6, updated_at = $7
	WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		fac.ID, fac.Name, fac.Email, fac.PasswordHash, nullStr(fac.DepartmentID), fac.Designation, fac.UpdatedAt)
	if err != nil {
		return user.Faculty{}, errors.Wrap(err, "updating faculty")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.Faculty{}, user.ErrNotFound
	}
	return fac, nil
}

func (repo *facultyRepository) DeleteFaculty(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM faculty WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting faculty")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Students

type studentRow struct {
	accountRow
	RegistrationNumber string      `db:"registration_number"`
	DepartmentID       null.String `db:"department_id"`
	Year               int         `db:"year"`
	Semester           int         `db:"semester"`
	RegistrationStatus string      `db:"registration_status"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
}

func (r studentRow) toDomain() user.Student {
	acct := r.accountRow.toDomain()
	acct.Role = user.RoleStudent
	return user.Student{
		Account:            acct,
		RegistrationNumber: r.RegistrationNumber,
		DepartmentID:       r.DepartmentID.String,
		Year:               r.Year,
		Semester:           r.Semester,
		RegistrationStatus: user.RegistrationStatus(r.RegistrationStatus),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type studentRepository struct {
	accountStore
}

var _ user.StudentRepository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) user.StudentRepository {
	return &studentRepository{accountStore{db: db, table: "student"}}
}

const studentCols = `id, name, email, password_hash, last_login, registration_number, department_id, year, semester, registration_status, created_at, updated_at`

func (repo *studentRepository) CheckStudentEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	q := `SELECT COUNT(*) FROM student WHERE email = $1`
	args := []interface{}{email}
	if len(excludedIDs) > 0 {
		q += ` AND id != ALL($2)`
		args = append(args, pqStringArray(excludedIDs))
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking student email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std user.Student) (user.Student, error) {
	q := `
	INSERT INTO student (name, email, password_hash, registration_number, department_id, year, semester, registration_status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		std.Name, std.Email, std.PasswordHash, std.RegistrationNumber, nullStr(std.DepartmentID),
		std.Year, std.Semester, string(std.RegistrationStatus), std.CreatedAt, std.UpdatedAt,
	).Scan(&std.ID)
	if err != nil {
		return user.Student{}, errors.Wrap(err, "creating student")
	}
	return std, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (user.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+studentCols+` FROM student WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return user.Student{}, user.ErrNotFound
		}
		return user.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toDomain(), nil
}

func (repo *studentRepository) GetStudentByEmail(ctx context.Context, email string) (user.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+studentCols+` FROM student WHERE email = $1`, email); err != nil {
		if err == sql.ErrNoRows {
			return user.Student{}, user.ErrNotFound
		}
		return user.Student{}, errors.Wrap(err, "getting student by email")
	}
	return row.toDomain(), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *user.StudentQueryFilter) ([]user.Student, error) {
	q := `SELECT ` + studentCols + ` FROM student WHERE 1=1`
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			q += ` AND (name ILIKE $` + argN(len(args)) + ` OR email ILIKE $` + argN(len(args)) + ` OR registration_number ILIKE $` + argN(len(args)) + `)`
		}
		if filter.Status != "" {
			args = append(args, string(filter.Status))
			q += ` AND registration_status = $` + argN(len(args))
		}
		if filter.DepartmentID != "" {
			args = append(args, filter.DepartmentID)
			q += ` AND department_id = $` + argN(len(args))
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
	q += ` ORDER BY name ASC`

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]user.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toDomain())
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std user.Student) (user.Student, error) {
	q := `
	UPDATE student
	SET name = $2, email = $3, password_hash = $4, registration_number = $5, department_id = $6,
	    year = $7, semester = $8, updated_at = $9
	WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		std.ID, std.Name, std.Email, std.PasswordHash, std.RegistrationNumber, nullStr(std.DepartmentID),
		std.Year, std.Semester, std.UpdatedAt)
	if err != nil {
		return user.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.Student{}, user.ErrNotFound
	}
	return std, nil
}

func (repo *studentRepository) SetRegistrationStatus(ctx context.Context, id string, status user.RegistrationStatus) (user.Student, error) {
	q := `UPDATE student SET registration_status = $2, updated_at = now() WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, id, string(status))
	if err != nil {
		return user.Student{}, errors.Wrap(err, "setting registration status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.Student{}, user.ErrNotFound
	}
	return repo.GetStudentByID(ctx, id)
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}
