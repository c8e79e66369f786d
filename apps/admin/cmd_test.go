package main

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/tmalache/chuo/core/user"
	dummydb "github.com/tmalache/chuo/storage/database/dummy"
)

func setup(t *testing.T) *commandLine {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return &commandLine{
		admins:   dummydb.NewAdminRepository(db),
		faculty:  dummydb.NewFacultyRepository(db),
		students: dummydb.NewStudentRepository(db),
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var called bool
	migrateFunc = func(db *sql.DB) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if !called {
		t.Error("migrate command did not run the migrations")
	}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "name but no email", args: []string{"addadmin", "-name", "Root"}, wantErr: errHelp},
		{name: "no password", args: []string{"addadmin", "-name", "Root", "-email", "root@test.cd"}, wantErr: errHelp},
		{name: "create", args: []string{"addadmin", "-name", "Root", "-email", "root@test.cd"}, pwd: "s3cr3t"},
		{name: "re-key existing", args: []string{"addadmin", "-name", "Root", "-email", "root@test.cd"}, pwd: "changed"},
	}
	for _, tt := range tests {
		tt := tt
		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				acct, err := cli.admins.GetAccountByEmail(context.Background(), "root@test.cd")
				if err != nil {
					t.Fatalf("GetAccountByEmail() failed: %v", err)
				}
				if cErr := acct.CheckPassword(tt.pwd); cErr != nil {
					t.Errorf("password not set to %q: %v", tt.pwd, cErr)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	acct := user.Account{Name: "User", Email: "awe@test.cd", Role: user.RoleAdmin}
	if err := acct.SetPassword("mdr"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	adm, err := cli.admins.CreateAdmin(context.Background(), user.Admin{Account: acct})
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", adm.Email}, pwd: "lmao"},
	}
	for _, tt := range tests {
		tt := tt
		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				refreshed, err := cli.admins.GetAccountByID(context.Background(), adm.ID)
				if err != nil {
					t.Fatalf("GetAccountByID() failed: %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, adm.PasswordHash) {
					t.Error("failed to update new password")
				}
			}
		})
	}
}
