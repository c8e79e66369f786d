package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmalache/chuo/core/announcement"
)

func TestAnnouncementAPI(t *testing.T) {
	app := initApp(t)

	admin := app.createAdmin(t, "Root", "root@test.cd")
	dept := app.createDepartment(t, "Computer Science", "CS")
	fac := app.createFaculty(t, "Prof X", "profx@test.cd", dept.ID)
	alice := app.createStudent(t, "Alice", "alice@test.cd", true)

	adminToken := getToken(t, admin.Account)
	facToken := getToken(t, fac.Account)
	aliceToken := getToken(t, alice.Account)

	publish := func(t *testing.T, body []byte) announcement.Announcement {
		req, rec := newAuthRequest(http.MethodPost, "/v1/announcements", adminToken, body)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var ann announcement.Announcement
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ann))
		return ann
	}

	t.Run("create is admin only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/announcements", facToken,
			[]byte(`{"title": "T", "content": "C"}`))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	everyone := publish(t, []byte(`{"title": "Holiday", "content": "Campus closed Friday."}`))
	publish(t, []byte(`{"title": "Exams", "content": "Timetable out.", "audience": "students"}`))
	publish(t, []byte(fmt.Sprintf(
		`{"title": "Staff meeting", "content": "Monday 9am.", "audience": "faculty", "department_id": %q}`, dept.ID)))

	assert.Equal(t, admin.ID, everyone.CreatedBy)

	list := func(t *testing.T, token string) []announcement.Announcement {
		req, rec := newAuthRequest(http.MethodGet, "/v1/announcements", token)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var anns []announcement.Announcement
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &anns))
		return anns
	}

	t.Run("student view", func(t *testing.T) {
		assert.Len(t, list(t, aliceToken), 2)
	})

	t.Run("faculty view scoped by department", func(t *testing.T) {
		assert.Len(t, list(t, facToken), 2)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		assert.Len(t, list(t, adminToken), 3)
	})
}

func TestNotificationAPI(t *testing.T) {
	app := initApp(t)
	ctx := context.Background()

	admin := app.createAdmin(t, "Root", "root@test.cd")
	alice := app.createStudent(t, "Alice", "alice@test.cd", true)
	bob := app.createStudent(t, "Bob", "bob@test.cd", true)

	adminToken := getToken(t, admin.Account)
	aliceToken := getToken(t, alice.Account)
	bobToken := getToken(t, bob.Account)

	t.Run("notify", func(t *testing.T) {
		body := []byte(fmt.Sprintf(
			`{"title": "Fees due", "message": "Pay by Friday.", "role": "student", "recipients": [%q, %q]}`,
			alice.ID, bob.ID))
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", adminToken, body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, SuccessResponse{Success: "notifications sent"}),
		}, rec)
	})

	var notifID string

	t.Run("each recipient sees only theirs", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications", aliceToken)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var notifs []announcement.Notification
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifs))
		require.Len(t, notifs, 1)
		assert.Equal(t, alice.ID, notifs[0].RecipientID)
		assert.False(t, notifs[0].Read)
		notifID = notifs[0].ID
	})

	t.Run("mark read is recipient only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/notifications/"+notifID+"/read", bobToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: announcement.ErrNotRecipient.Error()}),
		}, rec)

		req, rec = newAuthRequest(http.MethodPut, "/v1/notifications/"+notifID+"/read", aliceToken)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var notif announcement.Notification
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notif))
		assert.True(t, notif.Read)

		refreshed, err := app.announcementSvc.ListNotifications(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, refreshed, 1)
		assert.True(t, refreshed[0].Read)
	})

	t.Run("no recipients broadcasts to every student", func(t *testing.T) {
		body := []byte(`{"title": "Campus closed", "message": "Reopens Monday.", "role": "student"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", adminToken, body)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		for _, std := range []string{alice.ID, bob.ID} {
			notifs, err := app.announcementSvc.ListNotifications(ctx, std)
			require.NoError(t, err)
			require.Len(t, notifs, 2, "broadcast must reach every student")
		}
	})
}
