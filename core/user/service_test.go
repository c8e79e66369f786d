package user_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/user"
	logsvc "github.com/tmalache/chuo/services/logger"
	queuesvc "github.com/tmalache/chuo/services/queue"
	dummydb "github.com/tmalache/chuo/storage/database/dummy"
)

func testConf() *core.Config {
	return &core.Config{
		AppName:                   "Chuo",
		SecretKey:                 []byte("secret"),
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
}

func setup(t *testing.T) (*user.Service, core.TaskQueue) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	queue := queuesvc.NewMemoryQueue(16)
	logger := logsvc.NewPlainLogger(log.New(io.Discard, "", 0))
	svc := user.NewService(
		dummydb.NewAdminRepository(db),
		dummydb.NewFacultyRepository(db),
		dummydb.NewStudentRepository(db),
		queue, logger, testConf(),
	)
	return svc, queue
}

func queueLen(t *testing.T, queue core.TaskQueue) int {
	q, ok := queue.(interface{ Len() int })
	require.True(t, ok, "queue does not expose Len()")
	return q.Len()
}

func TestService_RegisterStudent(t *testing.T) {
	svc, queue := setup(t)
	ctx := context.Background()

	ns := user.NewStudent{
		Name:               "Jane Doe",
		Email:              "jane@test.cd",
		Password:           "V4lid#Secret",
		PasswordConfirm:    "V4lid#Secret",
		RegistrationNumber: "REG-0001",
		Year:               1,
		Semester:           1,
	}
	require.NoError(t, ns.Validate(ctx, svc))

	std, err := svc.RegisterStudent(ctx, ns)
	require.NoError(t, err)
	assert.NotEmpty(t, std.ID)
	assert.Equal(t, user.StatusPending, std.RegistrationStatus)
	assert.Equal(t, user.RoleStudent, std.Role)
	assert.Equal(t, 1, queueLen(t, queue), "registration should queue a confirmation email")

	// duplicate email is rejected at validation time
	dup := ns
	require.Error(t, dup.Validate(ctx, svc))
}

func TestService_RegisterStudent_passwordPolicy(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		pwd  string
	}{
		{"too short", "aB1#"},
		{"all numeric", "123456789"},
		{"no complexity", "justlowercase"},
		{"whitespace", "Sp ced#Pwd1"},
		{"similar to email", "jane@test.cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := user.NewStudent{
				Name:            "Jane Doe",
				Email:           "jane@test.cd",
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
			}
			assert.Error(t, ns.Validate(ctx, svc))
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	ns := user.NewStudent{
		Name:            "Jane Doe",
		Email:           "jane@test.cd",
		Password:        "V4lid#Secret",
		PasswordConfirm: "V4lid#Secret",
	}
	std, err := svc.RegisterStudent(ctx, ns)
	require.NoError(t, err)

	// login is rejected until an admin approves the registration
	_, err = svc.Authenticate(ctx, user.RoleStudent, ns.Email, ns.Password)
	require.Equal(t, user.ErrNotApproved, err)
	assert.EqualError(t, err, "Account not approved yet")

	_, err = svc.SetRegistrationStatus(ctx, std.ID, user.StatusApproved)
	require.NoError(t, err)

	acct, err := svc.Authenticate(ctx, user.RoleStudent, ns.Email, ns.Password)
	require.NoError(t, err)
	assert.Equal(t, std.ID, acct.ID)
	assert.Equal(t, user.RoleStudent, acct.Role)
	assert.False(t, acct.LastLogin.IsZero())

	// bad password and unknown principals both collapse to the same error
	_, err = svc.Authenticate(ctx, user.RoleStudent, ns.Email, "wrong")
	assert.Equal(t, user.ErrInvalidCredentials, err)
	assert.EqualError(t, err, "Invalid credentials")

	_, err = svc.Authenticate(ctx, user.RoleFaculty, ns.Email, ns.Password)
	assert.Equal(t, user.ErrInvalidCredentials, err)

	_, err = svc.Authenticate(ctx, user.Role("ghost"), ns.Email, ns.Password)
	assert.Equal(t, user.ErrInvalidCredentials, err)
}

func TestService_SetRegistrationStatus(t *testing.T) {
	svc, queue := setup(t)
	ctx := context.Background()

	register := func(t *testing.T, email string) user.Student {
		std, err := svc.RegisterStudent(ctx, user.NewStudent{
			Name:            "Jane Doe",
			Email:           email,
			Password:        "V4lid#Secret",
			PasswordConfirm: "V4lid#Secret",
		})
		require.NoError(t, err)
		return std
	}

	t.Run("approve then graduate", func(t *testing.T) {
		std := register(t, "approve@test.cd")
		std, err := svc.SetRegistrationStatus(ctx, std.ID, user.StatusApproved)
		require.NoError(t, err)
		assert.Equal(t, user.StatusApproved, std.RegistrationStatus)

		std, err = svc.SetRegistrationStatus(ctx, std.ID, user.StatusGraduated)
		require.NoError(t, err)
		assert.Equal(t, user.StatusGraduated, std.RegistrationStatus)
	})

	t.Run("no transition reverses", func(t *testing.T) {
		std := register(t, "reverse@test.cd")
		_, err := svc.SetRegistrationStatus(ctx, std.ID, user.StatusApproved)
		require.NoError(t, err)

		_, err = svc.SetRegistrationStatus(ctx, std.ID, user.StatusPending)
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		std := register(t, "reject@test.cd")
		_, err := svc.SetRegistrationStatus(ctx, std.ID, user.StatusRejected)
		require.NoError(t, err)

		_, err = svc.SetRegistrationStatus(ctx, std.ID, user.StatusApproved)
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("decision queues an email", func(t *testing.T) {
		before := queueLen(t, queue)
		std := register(t, "mail@test.cd")
		_, err := svc.SetRegistrationStatus(ctx, std.ID, user.StatusApproved)
		require.NoError(t, err)
		// one for the registration, one for the approval
		assert.Equal(t, before+2, queueLen(t, queue))
	})
}

func TestService_ResetPassword(t *testing.T) {
	svc, queue := setup(t)
	ctx := context.Background()

	fac, err := svc.CreateFaculty(ctx, user.NewFaculty{
		Name:            "Prof X",
		Email:           "profx@test.cd",
		Password:        "V4lid#Secret",
		PasswordConfirm: "V4lid#Secret",
		Designation:     "Professor",
	})
	require.NoError(t, err)

	before := queueLen(t, queue)
	require.NoError(t, svc.RequestPasswordReset(ctx, user.RoleFaculty, fac.Email))
	assert.Equal(t, before+1, queueLen(t, queue))

	// unknown email reports ErrNotFound so the handler can hide it
	err = svc.RequestPasswordReset(ctx, user.RoleFaculty, "ghost@test.cd")
	assert.Equal(t, user.ErrNotFound, err)

	token, err := user.MakeToken(fac.Account)
	require.NoError(t, err)

	data := user.ResetAccountPassword{
		UID:             user.EncodeUID(fac.Account),
		Token:           token,
		Password:        "N3w#Secret!",
		PasswordConfirm: "N3w#Secret!",
	}
	require.NoError(t, data.Validate())
	require.NoError(t, svc.ResetPassword(ctx, data))

	_, err = svc.Authenticate(ctx, user.RoleFaculty, fac.Email, "N3w#Secret!")
	assert.NoError(t, err)

	// the old password no longer works
	_, err = svc.Authenticate(ctx, user.RoleFaculty, fac.Email, "V4lid#Secret")
	assert.Equal(t, user.ErrInvalidCredentials, err)
}
