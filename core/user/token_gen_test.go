package user

import (
	"testing"
	"time"
)

func TestMakeVerifyToken(t *testing.T) {
	secretKey = []byte("secret")
	passwordResetTimeoutDelta = 3 * 24 * time.Hour

	now := time.Now()
	acct := Account{
		ID:        "std-001",
		Name:      "T",
		Email:     "t@test.test",
		Role:      RoleStudent,
		LastLogin: now,
	}
	_ = acct.SetPassword("pwd")

	validToken, err := MakeToken(acct)
	if err != nil {
		t.Fatalf("MakeToken() error = %v", err)
	}

	// generate an expired token
	dayLate := passwordResetTimeoutDelta + (24 * time.Hour)
	nowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := MakeToken(acct)
	if err != nil {
		t.Fatalf("MakeToken() error = %v", err)
	}
	nowFunc = time.Now // reset

	tests := []struct {
		name    string
		acct    Account
		token   string
		wantErr error
	}{
		{name: "no token", acct: acct, wantErr: errInvalidToken},
		{name: "invalid parts len", acct: acct, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", acct: acct, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", acct: acct, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", acct: acct, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", acct: acct, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", acct: acct, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyToken(tt.acct, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	acct := Account{ID: "fac-042", Role: RoleFaculty}

	role, id, err := decodeUID(EncodeUID(acct))
	if err != nil {
		t.Fatalf("decodeUID() error = %v", err)
	}
	if role != RoleFaculty || id != "fac-042" {
		t.Errorf("decodeUID() = (%v, %v), want (faculty, fac-042)", role, id)
	}

	if _, _, err = decodeUID("!!not-base64!!"); err == nil {
		t.Error("decodeUID() expected error for invalid base64")
	}
	if _, _, err = decodeUID("bm9jb2xvbg"); err != errInvalidToken { // "nocolon"
		t.Errorf("decodeUID() error = %v, want errInvalidToken", err)
	}
}
