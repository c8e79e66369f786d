package user

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrNotApproved        = errors.New("Account not approved yet")
	ErrInvalidTransition  = errors.New("invalid registration status transition")
)

type Service struct {
	admins   AdminRepository
	faculty  FacultyRepository
	students StudentRepository
	dir      *Directory
	queue    core.TaskQueue
	logger   core.Logger
	conf     *core.Config
}

func NewService(
	admins AdminRepository,
	faculty FacultyRepository,
	students StudentRepository,
	queue core.TaskQueue,
	logger core.Logger,
	conf *core.Config,
) *Service {
	configure(conf)

	dir := NewDirectory()
	dir.Register(RoleAdmin, admins)
	dir.Register(RoleFaculty, faculty)
	dir.Register(RoleStudent, students)

	return &Service{
		admins:   admins,
		faculty:  faculty,
		students: students,
		dir:      dir,
		queue:    queue,
		logger:   logger,
		conf:     conf,
	}
}

// Directory exposes the role→store lookup table for the authentication gate.
func (svc *Service) Directory() *Directory { return svc.dir }

func (svc *Service) checkStudentEmailUniqueness(ctx context.Context, email string, exclIDs ...string) error {
	if err := svc.students.CheckStudentEmailUniqueness(ctx, email, exclIDs...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) checkFacultyEmailUniqueness(ctx context.Context, email string, exclIDs ...string) error {
	if err := svc.faculty.CheckFacultyEmailUniqueness(ctx, email, exclIDs...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Authentication

// Authenticate checks the credentials against the role's store. A student
// whose registration is not yet approved cannot log in.
func (svc *Service) Authenticate(ctx context.Context, role Role, email, pwd string) (Account, error) {
	email = core.CleanString(email, true /* lower */)

	store, ok := svc.dir.store(role)
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	acct, err := store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, errors.Wrap(err, "finding account by email")
	}
	if err = acct.CheckPassword(pwd); err != nil {
		return Account{}, ErrInvalidCredentials
	}

	if role == RoleStudent {
		std, err := svc.students.GetStudentByID(ctx, acct.ID)
		if err != nil {
			return Account{}, errors.Wrap(err, "finding student by ID")
		}
		if std.RegistrationStatus != StatusApproved {
			return Account{}, ErrNotApproved
		}
	}

	now := time.Now().UTC()
	if err := store.SetLastLogin(ctx, acct.ID, now); err != nil {
		return Account{}, errors.Wrap(err, "setting lastLogin")
	}
	acct.Role = role
	acct.LastLogin = now
	return acct, nil
}

// Lookup resolves a verified (role, id) claim to a live Account.
func (svc *Service) Lookup(ctx context.Context, role Role, id string) (Account, error) {
	return svc.dir.Lookup(ctx, role, id)
}

// Students

func (svc *Service) RegisterStudent(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	std := Student{
		Account: Account{
			Name:  ns.Name,
			Email: ns.Email,
			Role:  RoleStudent,
		},
		RegistrationNumber: ns.RegistrationNumber,
		DepartmentID:       ns.DepartmentID,
		Year:               ns.Year,
		Semester:           ns.Semester,
		RegistrationStatus: StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := std.SetPassword(ns.Password); err != nil {
		return Student{}, err
	}

	std, err := svc.students.CreateStudent(ctx, std)
	if err != nil {
		return Student{}, err
	}

	svc.queueEmail(ctx, core.EmailTask{
		ToName:    std.Name,
		ToAddress: std.Email,
		Subject:   "Registration received",
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour registration has been received and is awaiting approval. "+
				"You will be notified once an administrator reviews it.", std.Name),
	})
	return std, nil
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.students.GetStudentByID(ctx, id)
}

func (svc *Service) QueryStudents(ctx context.Context, filter *StudentQueryFilter) ([]Student, error) {
	return svc.students.QueryStudents(ctx, filter)
}

func (svc *Service) UpdateStudent(ctx context.Context, orig Student, us UpdateStudent) (Student, error) {
	std := orig
	std.Name = us.Name
	std.Email = us.Email
	if us.RegistrationNumber != "" {
		std.RegistrationNumber = us.RegistrationNumber
	}
	if us.DepartmentID != "" {
		std.DepartmentID = us.DepartmentID
	}
	if us.Year != 0 {
		std.Year = us.Year
	}
	if us.Semester != 0 {
		std.Semester = us.Semester
	}
	std.UpdatedAt = time.Now().UTC()
	if us.Password != "" {
		if err := std.SetPassword(us.Password); err != nil {
			return Student{}, err
		}
	}
	return svc.students.UpdateStudent(ctx, std)
}

// SetRegistrationStatus moves a student's registration forward; no
// transition reverses a previous one.
func (svc *Service) SetRegistrationStatus(ctx context.Context, id string, status RegistrationStatus) (Student, error) {
	std, err := svc.students.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if !canTransition(std.RegistrationStatus, status) {
		return Student{}, core.NewValidationError(ErrInvalidTransition, core.FieldError{
			Field: "registration_status",
			Error: fmt.Sprintf("cannot move from %s to %s", std.RegistrationStatus, status),
		})
	}

	std, err = svc.students.SetRegistrationStatus(ctx, id, status)
	if err != nil {
		return Student{}, err
	}

	if status == StatusApproved || status == StatusRejected {
		subject := "Registration approved"
		text := fmt.Sprintf("Hi %s,\n\nYour registration has been approved. You can now log in.", std.Name)
		if status == StatusRejected {
			subject = "Registration rejected"
			text = fmt.Sprintf("Hi %s,\n\nWe are sorry; your registration was not approved.", std.Name)
		}
		svc.queueEmail(ctx, core.EmailTask{ToName: std.Name, ToAddress: std.Email, Subject: subject, Text: text})
	}
	return std, nil
}

func (svc *Service) DeleteStudent(ctx context.Context, id string) error {
	return svc.students.DeleteStudent(ctx, id)
}

// Faculty

func (svc *Service) CreateFaculty(ctx context.Context, nf NewFaculty) (Faculty, error) {
	now := time.Now().UTC()
	fac := Faculty{
		Account: Account{
			Name:  nf.Name,
			Email: nf.Email,
			Role:  RoleFaculty,
		},
		DepartmentID: nf.DepartmentID,
		Designation:  nf.Designation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := fac.SetPassword(nf.Password); err != nil {
		return Faculty{}, err
	}
	return svc.faculty.CreateFaculty(ctx, fac)
}

func (svc *Service) GetFaculty(ctx context.Context, id string) (Faculty, error) {
	return svc.faculty.GetFacultyByID(ctx, id)
}

func (svc *Service) QueryFaculty(ctx context.Context, filter *FacultyQueryFilter) ([]Faculty, error) {
	return svc.faculty.QueryFaculty(ctx, filter)
}

func (svc *Service) UpdateFaculty(ctx context.Context, orig Faculty, uf UpdateFaculty) (Faculty, error) {
	fac := orig
	fac.Name = uf.Name
	fac.Email = uf.Email
	if uf.DepartmentID != "" {
		fac.DepartmentID = uf.DepartmentID
	}
	if uf.Designation != "" {
		fac.Designation = uf.Designation
	}
	fac.UpdatedAt = time.Now().UTC()
	if uf.Password != "" {
		if err := fac.SetPassword(uf.Password); err != nil {
			return Faculty{}, err
		}
	}
	return svc.faculty.UpdateFaculty(ctx, fac)
}

func (svc *Service) DeleteFaculty(ctx context.Context, id string) error {
	return svc.faculty.DeleteFaculty(ctx, id)
}

// Admins

func (svc *Service) CreateAdmin(ctx context.Context, name, email, pwd string) (Admin, error) {
	now := time.Now().UTC()
	adm := Admin{
		Account: Account{
			Name:  core.CleanString(name),
			Email: core.CleanString(email, true /* lower */),
			Role:  RoleAdmin,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := adm.SetPassword(pwd); err != nil {
		return Admin{}, err
	}
	return svc.admins.CreateAdmin(ctx, adm)
}

// Password reset

// RequestPasswordReset emails a signed, time-limited reset link. The
// caller treats ErrNotFound as success to avoid leaking account existence.
func (svc *Service) RequestPasswordReset(ctx context.Context, role Role, email string) error {
	store, ok := svc.dir.store(role)
	if !ok {
		return ErrNotFound
	}
	acct, err := store.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	acct.Role = role

	token, err := MakeToken(acct)
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}
	link := fmt.Sprintf("%s/password-reset?uid=%s&token=%s", svc.conf.FrontendBaseURL, EncodeUID(acct), token)
	svc.queueEmail(ctx, core.EmailTask{
		ToName:    acct.Name,
		ToAddress: acct.Email,
		Subject:   "Password reset",
		Text:      fmt.Sprintf("Hi %s,\n\nFollow this link to reset your password:\n%s", acct.Name, link),
	})
	return nil
}

// ResetPassword validates the uid+token pair and sets the new password.
func (svc *Service) ResetPassword(ctx context.Context, data ResetAccountPassword) error {
	role, id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	acct, err := svc.dir.Lookup(ctx, role, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(acct, data.Token); err != nil {
		return core.NewValidationError(err)
	}

	if err = acct.SetPassword(data.Password); err != nil {
		return err
	}
	store, _ := svc.dir.store(role)
	return store.UpdatePassword(ctx, acct.ID, acct.PasswordHash)
}

// queueEmail hands the message to the outbound queue; failures are
// logged, never surfaced to the caller.
func (svc *Service) queueEmail(ctx context.Context, mail core.EmailTask) {
	task, err := mail.Task()
	if err != nil {
		svc.logger.Error("encoding email task", err)
		return
	}
	if err := svc.queue.Publish(ctx, task); err != nil {
		svc.logger.Error("queueing email task", err)
	}
}
