package user

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tmalache/chuo/core"
)

// Roles. Exactly one per principal; the role decides which store holds
// the record, so (role, id) is the true key.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleFaculty Role = "faculty"
	RoleStudent Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleFaculty, RoleStudent}

// Tiers encode the privilege lattice: admin ⊇ faculty ⊇ student.
// An endpoint declares the minimum tier it accepts.
const (
	TierStudent = 10
	TierFaculty = 20
	TierAdmin   = 30
)

var roleTiers = map[Role]int{
	RoleAdmin:   TierAdmin,
	RoleFaculty: TierFaculty,
	RoleStudent: TierStudent,
}

// TierOf returns the privilege tier of a role, 0 for unknown roles.
func TierOf(role Role) int {
	return roleTiers[role]
}

// Registration statuses gating student login.
type RegistrationStatus string

const (
	StatusPending   RegistrationStatus = "Pending"
	StatusApproved  RegistrationStatus = "Approved"
	StatusRejected  RegistrationStatus = "Rejected"
	StatusGraduated RegistrationStatus = "Graduated"
	StatusWithdrawn RegistrationStatus = "Withdrawn"
)

// statusTransitions lists the allowed forward moves; nothing reverses.
var statusTransitions = map[RegistrationStatus][]RegistrationStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusGraduated, StatusWithdrawn},
}

func canTransition(from, to RegistrationStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Account is the common credential view of any principal, resolved from a
// verified token by the authentication gate.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash []byte    `json:"-"`
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a *Account) Tier() int { return TierOf(a.Role) }

type Admin struct {
	Account
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Faculty struct {
	Account
	DepartmentID string    `json:"department_id"`
	Designation  string    `json:"designation"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type Student struct {
	Account
	RegistrationNumber string             `json:"registration_number"`
	DepartmentID       string             `json:"department_id"`
	Year               int                `json:"year"`
	Semester           int                `json:"semester"`
	RegistrationStatus RegistrationStatus `json:"registration_status"`
	CreatedAt          time.Time          `json:"created_at"` // UTC
	UpdatedAt          time.Time          `json:"updated_at"` // UTC
}

type (
	// AccountStore resolves a principal's credential view within one
	// role's collection.
	AccountStore interface {
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		SetLastLogin(ctx context.Context, id string, t time.Time) error
		UpdatePassword(ctx context.Context, id string, hash []byte) error
	}

	AdminRepository interface {
		AccountStore
		CreateAdmin(ctx context.Context, adm Admin) (Admin, error)
		GetAdminByEmail(ctx context.Context, email string) (Admin, error)
	}

	FacultyRepository interface {
		AccountStore
		CheckFacultyEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error
		CreateFaculty(ctx context.Context, fac Faculty) (Faculty, error)
		GetFacultyByID(ctx context.Context, id string) (Faculty, error)
		// QueryFaculty applies AND on available filter fields.
		QueryFaculty(ctx context.Context, filter *FacultyQueryFilter) ([]Faculty, error)
		UpdateFaculty(ctx context.Context, fac Faculty) (Faculty, error)
		DeleteFaculty(ctx context.Context, id string) error
	}

	StudentRepository interface {
		AccountStore
		CheckStudentEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByEmail(ctx context.Context, email string) (Student, error)
		// QueryStudents applies AND on available filter fields.
		QueryStudents(ctx context.Context, filter *StudentQueryFilter) ([]Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		SetRegistrationStatus(ctx context.Context, id string, status RegistrationStatus) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
	}
)

// Directory is the role→store lookup table used by the authentication
// gate; adding a role is a single Register call at wiring time.
type Directory struct {
	stores map[Role]AccountStore
}

func NewDirectory() *Directory {
	return &Directory{stores: make(map[Role]AccountStore, len(AllRoles))}
}

func (d *Directory) Register(role Role, store AccountStore) {
	d.stores[role] = store
}

// Lookup resolves (role, id) to an Account. An unknown role resolves to
// no principal, covering unrecognized role claims in otherwise valid tokens.
func (d *Directory) Lookup(ctx context.Context, role Role, id string) (Account, error) {
	store, ok := d.stores[role]
	if !ok {
		return Account{}, ErrNotFound
	}
	acct, err := store.GetAccountByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	acct.Role = role
	return acct, nil
}

func (d *Directory) store(role Role) (AccountStore, bool) {
	store, ok := d.stores[role]
	return store, ok
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name               string `json:"name" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	Password           string `json:"password" validate:"required"`
	PasswordConfirm    string `json:"password_confirm" validate:"required,eqfield=Password"`
	RegistrationNumber string `json:"registration_number"`
	DepartmentID       string `json:"department_id"`
	Year               int    `json:"year" validate:"omitempty,min=1,max=6"`
	Semester           int    `json:"semester" validate:"omitempty,min=1,max=12"`
}

func (ns *NewStudent) Validate(ctx context.Context, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkStudentEmailUniqueness(ctx, ns.Email)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Name               string `json:"name"`
	Email              string `json:"email" validate:"omitempty,email"`
	RegistrationNumber string `json:"registration_number"`
	DepartmentID       string `json:"department_id"`
	Year               int    `json:"year" validate:"omitempty,min=1,max=6"`
	Semester           int    `json:"semester" validate:"omitempty,min=1,max=12"`
	Password           string `json:"password"`
	PasswordConfirm    string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (us *UpdateStudent) Validate(ctx context.Context, orig Student, svc *Service) error {
	us.Name = core.CleanString(us.Name)
	if us.Name == "" {
		us.Name = orig.Name
	}
	email := core.CleanString(us.Email, true /* lower */)
	if email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	return svc.checkStudentEmailUniqueness(ctx, us.Email, orig.ID)
}

// NewFaculty contains information needed to create a Faculty member.
type NewFaculty struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	DepartmentID    string `json:"department_id"`
	Designation     string `json:"designation"`
}

func (nf *NewFaculty) Validate(ctx context.Context, svc *Service) error {
	nf.Name = core.CleanString(nf.Name)
	nf.Email = core.CleanString(nf.Email, true /* lower */)

	if err := core.Validate.Struct(nf); err != nil {
		return err
	}
	return svc.checkFacultyEmailUniqueness(ctx, nf.Email)
}

// UpdateFaculty defines what information may be provided to modify an existing Faculty.
type UpdateFaculty struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	DepartmentID    string `json:"department_id"`
	Designation     string `json:"designation"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uf *UpdateFaculty) Validate(ctx context.Context, orig Faculty, svc *Service) error {
	uf.Name = core.CleanString(uf.Name)
	if uf.Name == "" {
		uf.Name = orig.Name
	}
	email := core.CleanString(uf.Email, true /* lower */)
	if email != "" {
		uf.Email = email
	} else {
		uf.Email = orig.Email
	}

	if err := core.Validate.Struct(uf); err != nil {
		return err
	}
	return svc.checkFacultyEmailUniqueness(ctx, uf.Email, orig.ID)
}

// ResetAccountPassword confirms a password reset.
type ResetAccountPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetAccountPassword) Validate() error { return core.Validate.Struct(rp) }

// StudentQueryFilter is an exact-match conjunction; absent fields are
// not constrained.
type StudentQueryFilter struct {
	Search       string             `query:"search"`
	Status       RegistrationStatus `query:"status"`
	DepartmentID string             `query:"department"`
	Year         int                `query:"year"`
	Semester     int                `query:"semester"`
}

func (qf *StudentQueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

type FacultyQueryFilter struct {
	Search       string `query:"search"`
	DepartmentID string `query:"department"`
	Designation  string `query:"designation"`
}

func (qf *FacultyQueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
