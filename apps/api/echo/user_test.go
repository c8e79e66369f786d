package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmalache/chuo/core/user"
)

func TestAuthAPI_login(t *testing.T) {
	app := initApp(t)

	std := app.createStudent(t, "Jane Doe", "jane@test.cd", false /* approve */)
	loginBody := func(email, pwd string) []byte {
		return []byte(fmt.Sprintf(`{"email": %q, "password": %q}`, email, pwd))
	}

	tests := []httpTest{
		{
			name: "empty body", method: http.MethodPost, path: "/v1/auth/student/login",
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "email is a required field", "password": "password is a required field"}`),
		},
		{
			name: "pending registration", method: http.MethodPost, path: "/v1/auth/student/login",
			body: loginBody(std.Email, testPwd), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "Account not approved yet"}),
		},
		{
			name: "wrong role endpoint", method: http.MethodPost, path: "/v1/auth/faculty/login",
			body: loginBody(std.Email, testPwd), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid credentials"}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/auth/admin/login",
			body: loginBody("ghost@test.cd", testPwd), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid credentials"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("approved login", func(t *testing.T) {
		_, err := app.userSvc.SetRegistrationStatus(context.Background(), std.ID, user.StatusApproved)
		require.NoError(t, err)

		req, rec := newRequest(http.MethodPost, "/v1/auth/student/login", loginBody(std.Email, testPwd))
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid credentials"}),
		}
		req, rec := newRequest(http.MethodPost, "/v1/auth/student/login", loginBody(std.Email, "wrong"))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func TestAuthAPI_expiredToken(t *testing.T) {
	app := initApp(t)
	std := app.createStudent(t, "Jane Doe", "jane@test.cd", true)

	claims := GetAccountClaims(std.Account)
	claims.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	token, err := GenerateToken(claims)
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+std.ID, token)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
}

func TestAuthAPI_passwordReset(t *testing.T) {
	app := initApp(t)
	app.createFaculty(t, "Prof X", "profx@test.cd", "")

	wantData := marchallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	// the response never leaks whether the account exists
	for _, email := range []string{"profx@test.cd", "ghost@test.cd"} {
		tt := httpTest{wantCode: http.StatusOK, wantData: wantData}
		body := []byte(fmt.Sprintf(`{"role": "faculty", "email": %q}`, email))
		req, rec := newRequest(http.MethodPost, "/v1/auth/password-reset", body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	}
}

func TestStudentAPI(t *testing.T) {
	app := initApp(t)

	admin := app.createAdmin(t, "Root", "root@test.cd")
	fac := app.createFaculty(t, "Prof X", "profx@test.cd", "")
	alice := app.createStudent(t, "Alice", "alice@test.cd", true)
	bob := app.createStudent(t, "Bob", "bob@test.cd", true)

	adminToken := getToken(t, admin.Account)
	facToken := getToken(t, fac.Account)
	aliceToken := getToken(t, alice.Account)

	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{
			name: "list requires auth", method: http.MethodGet, path: "/v1/students",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "list is admin only", method: http.MethodGet, path: "/v1/students",
			token: aliceToken, wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "list as admin", method: http.MethodGet, path: "/v1/students",
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, alice, bob),
		},
		{
			name: "retrieve self", method: http.MethodGet, path: "/v1/students/" + alice.ID,
			token: aliceToken, wantCode: http.StatusOK, wantData: marchallObj(t, alice),
		},
		{
			name: "retrieve other student", method: http.MethodGet, path: "/v1/students/" + bob.ID,
			token: aliceToken, wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "retrieve as faculty", method: http.MethodGet, path: "/v1/students/" + bob.ID,
			token: facToken, wantCode: http.StatusOK, wantData: marchallObj(t, bob),
		},
		{
			name: "approve is admin only", method: http.MethodPut, path: "/v1/students/" + alice.ID + "/approve",
			body: []byte(`{"status": "Graduated"}`), token: facToken,
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "unknown student", method: http.MethodGet, path: "/v1/students/nope",
			token: adminToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	var carolID string
	t.Run("register is public", func(t *testing.T) {
		body := []byte(fmt.Sprintf(
			`{"name": "Carol", "email": "carol@test.cd", "password": %[1]q, "password_confirm": %[1]q}`, testPwd))
		req, rec := newRequest(http.MethodPost, "/v1/students/register", body)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var std user.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &std))
		assert.NotEmpty(t, std.ID)
		assert.Equal(t, user.StatusPending, std.RegistrationStatus)
		carolID = std.ID
	})

	t.Run("approve as admin", func(t *testing.T) {
		request, rec := newAuthRequest(http.MethodPut, "/v1/students/"+carolID+"/approve", adminToken,
			[]byte(`{"status": "Approved"}`))
		app.server.ServeHTTP(rec, request)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var std user.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &std))
		assert.Equal(t, user.StatusApproved, std.RegistrationStatus)
	})

	t.Run("delete as admin", func(t *testing.T) {
		request, rec := newAuthRequest(http.MethodDelete, "/v1/students/"+bob.ID, adminToken)
		app.server.ServeHTTP(rec, request)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		_, err := app.userSvc.GetStudent(context.Background(), bob.ID)
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestFacultyAPI(t *testing.T) {
	app := initApp(t)

	admin := app.createAdmin(t, "Root", "root@test.cd")
	facX := app.createFaculty(t, "Prof X", "profx@test.cd", "")
	facY := app.createFaculty(t, "Prof Y", "profy@test.cd", "")

	adminToken := getToken(t, admin.Account)
	facXToken := getToken(t, facX.Account)

	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{
			name: "create is admin only", method: http.MethodPost, path: "/v1/faculty",
			body:  []byte(fmt.Sprintf(`{"name": "Z", "email": "z@test.cd", "password": %[1]q, "password_confirm": %[1]q}`, testPwd)),
			token: facXToken, wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "list as admin", method: http.MethodGet, path: "/v1/faculty",
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, facX, facY),
		},
		{
			name: "retrieve self", method: http.MethodGet, path: "/v1/faculty/" + facX.ID,
			token: facXToken, wantCode: http.StatusOK, wantData: marchallObj(t, facX),
		},
		{
			name: "retrieve other faculty", method: http.MethodGet, path: "/v1/faculty/" + facY.ID,
			token: facXToken, wantCode: http.StatusForbidden, wantData: forbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("create as admin", func(t *testing.T) {
		body := []byte(fmt.Sprintf(
			`{"name": "Prof Z", "email": "profz@test.cd", "password": %[1]q, "password_confirm": %[1]q, "designation": "Professor"}`,
			testPwd))
		request, rec := newAuthRequest(http.MethodPost, "/v1/faculty", adminToken, body)
		app.server.ServeHTTP(rec, request)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var fac user.Faculty
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fac))
		assert.Equal(t, "Professor", fac.Designation)
	})
}
