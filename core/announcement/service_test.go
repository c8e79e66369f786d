package announcement_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmalache/chuo/core/announcement"
	logsvc "github.com/tmalache/chuo/services/logger"
	dummydb "github.com/tmalache/chuo/storage/database/dummy"
)

type fakeBroadcaster struct {
	events []string
}

func (b *fakeBroadcaster) Broadcast(event string, data interface{}) {
	b.events = append(b.events, event)
}

type fakeStudents struct {
	ids []string
}

func (s fakeStudents) ListStudentIDs(ctx context.Context) ([]string, error) {
	return s.ids, nil
}

func setup(t *testing.T, studentIDs ...string) (*announcement.Service, *fakeBroadcaster) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	broadcaster := &fakeBroadcaster{}
	logger := logsvc.NewPlainLogger(log.New(io.Discard, "", 0))
	svc := announcement.NewService(
		dummydb.NewAnnouncementRepository(db), broadcaster, fakeStudents{ids: studentIDs}, logger)
	return svc, broadcaster
}

func publish(t *testing.T, svc *announcement.Service, na announcement.NewAnnouncement) announcement.Announcement {
	require.NoError(t, na.Validate())
	ann, err := svc.Publish(context.Background(), "adm-1", na)
	require.NoError(t, err)
	return ann
}

func TestService_Publish(t *testing.T) {
	svc, broadcaster := setup(t)

	ann := publish(t, svc, announcement.NewAnnouncement{Title: "Welcome", Content: "Semester starts Monday."})
	assert.Equal(t, announcement.AudienceAll, ann.Audience, "audience defaults to all")
	assert.Equal(t, announcement.PriorityNormal, ann.Priority, "priority defaults to normal")
	assert.Equal(t, "adm-1", ann.CreatedBy)
	assert.Equal(t, []string{announcement.EventNewAnnouncement}, broadcaster.events)

	t.Run("category and priority carried through", func(t *testing.T) {
		ann := publish(t, svc, announcement.NewAnnouncement{
			Title: "Exam hall change", Content: "Hall B.", Category: "exams", Priority: announcement.PriorityHigh,
		})
		assert.Equal(t, "exams", ann.Category)
		assert.Equal(t, announcement.PriorityHigh, ann.Priority)
	})

	t.Run("unknown audience", func(t *testing.T) {
		na := announcement.NewAnnouncement{Title: "X", Content: "Y", Audience: "aliens"}
		assert.Error(t, na.Validate())
	})

	t.Run("unknown priority", func(t *testing.T) {
		na := announcement.NewAnnouncement{Title: "X", Content: "Y", Priority: "urgent!!"}
		assert.Error(t, na.Validate())
	})

	t.Run("bad expiry format", func(t *testing.T) {
		na := announcement.NewAnnouncement{Title: "X", Content: "Y", ExpiresAt: "tomorrow"}
		assert.Error(t, na.Validate())
	})
}

func TestService_ListVisible(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	everyone := publish(t, svc, announcement.NewAnnouncement{Title: "All", Content: "c"})
	students := publish(t, svc, announcement.NewAnnouncement{Title: "Students", Content: "c", Audience: announcement.AudienceStudents})
	csFaculty := publish(t, svc, announcement.NewAnnouncement{
		Title: "CS faculty", Content: "c", Audience: announcement.AudienceFaculty, DepartmentID: "dept-cs",
	})
	secondYears := publish(t, svc, announcement.NewAnnouncement{
		Title: "Year 2", Content: "c", Audience: announcement.AudienceStudents, TargetYear: 2, TargetSemester: 1,
	})
	expired := publish(t, svc, announcement.NewAnnouncement{
		Title: "Old", Content: "c", ExpiresAt: time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
	})

	ids := func(anns []announcement.Announcement) []string {
		out := make([]string, 0, len(anns))
		for _, ann := range anns {
			out = append(out, ann.ID)
		}
		return out
	}

	t.Run("students", func(t *testing.T) {
		visible, err := svc.ListVisible(ctx, announcement.AudienceStudents, "dept-cs", 1, 1)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{everyone.ID, students.ID}, ids(visible))
	})

	t.Run("year and semester targeting", func(t *testing.T) {
		visible, err := svc.ListVisible(ctx, announcement.AudienceStudents, "dept-cs", 2, 1)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{everyone.ID, students.ID, secondYears.ID}, ids(visible))

		// right year, wrong semester
		visible, err = svc.ListVisible(ctx, announcement.AudienceStudents, "dept-cs", 2, 2)
		require.NoError(t, err)
		assert.NotContains(t, ids(visible), secondYears.ID)
	})

	t.Run("faculty scoped by department", func(t *testing.T) {
		visible, err := svc.ListVisible(ctx, announcement.AudienceFaculty, "dept-cs", 0, 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{everyone.ID, csFaculty.ID}, ids(visible))

		visible, err = svc.ListVisible(ctx, announcement.AudienceFaculty, "dept-math", 0, 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{everyone.ID}, ids(visible))
	})

	t.Run("expired hidden from audiences", func(t *testing.T) {
		visible, err := svc.ListVisible(ctx, announcement.AudienceStudents, "", 0, 0)
		require.NoError(t, err)
		assert.NotContains(t, ids(visible), expired.ID)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		all, err := svc.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})
}

func TestService_Notifications(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	nn := announcement.NewNotification{
		Title:      "Fees due",
		Message:    "Pay by Friday.",
		Category:   "fees",
		Role:       "student",
		Recipients: []string{"std-a", "std-b"},
	}
	require.NoError(t, nn.Validate())
	require.NoError(t, svc.Notify(ctx, nn))

	notifs, err := svc.ListNotifications(ctx, "std-a")
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.False(t, notifs[0].Read)
	assert.Equal(t, "fees", notifs[0].Category)

	// only the recipient can mark it read
	_, err = svc.MarkRead(ctx, notifs[0].ID, "std-b")
	assert.Equal(t, announcement.ErrNotRecipient, err)

	notif, err := svc.MarkRead(ctx, notifs[0].ID, "std-a")
	require.NoError(t, err)
	assert.True(t, notif.Read)

	// marking twice is a no-op
	notif, err = svc.MarkRead(ctx, notif.ID, "std-a")
	require.NoError(t, err)
	assert.True(t, notif.Read)
}

func TestService_NotifyBroadcast(t *testing.T) {
	svc, _ := setup(t, "std-a", "std-b", "std-c")
	ctx := context.Background()

	nn := announcement.NewNotification{Title: "Campus closed", Message: "Reopens Monday.", Role: "student"}
	require.NoError(t, nn.Validate(), "no recipients means broadcast, not a validation error")
	require.NoError(t, svc.Notify(ctx, nn))

	for _, id := range []string{"std-a", "std-b", "std-c"} {
		notifs, err := svc.ListNotifications(ctx, id)
		require.NoError(t, err)
		require.Len(t, notifs, 1, "broadcast must reach %s", id)
		assert.Equal(t, "student", notifs[0].RecipientRole)
	}
}
