package announcement

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
)

// EventNewAnnouncement is the websocket event name subscribers receive.
const EventNewAnnouncement = "new-announcement"

var (
	// errors
	ErrNotFound        = errors.New("announcement not found")
	ErrNotifNotFound   = errors.New("notification not found")
	ErrNotRecipient    = errors.New("notification belongs to another recipient")
	ErrUnknownAudience = errors.New("unknown audience")
	ErrUnknownPriority = errors.New("unknown priority")
)

type Service struct {
	repo        Repository
	broadcaster Broadcaster
	students    StudentDirectory
	logger      core.Logger
}

func NewService(repo Repository, broadcaster Broadcaster, students StudentDirectory, logger core.Logger) *Service {
	return &Service{repo: repo, broadcaster: broadcaster, students: students, logger: logger}
}

// Publish persists the announcement, then fans it out to connected
// subscribers. The broadcast is fire-and-forget.
func (svc *Service) Publish(ctx context.Context, createdBy string, na NewAnnouncement) (Announcement, error) {
	ann := Announcement{
		Title:     na.Title,
		Content:   na.Content,
		Category:  na.Category,
		Priority:  na.Priority,
		Audience:  na.Audience,
		CreatedBy: createdBy,
		ExpiresAt: na.expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if na.DepartmentID != "" {
		ann.DepartmentID.SetValid(na.DepartmentID)
	}
	if na.TargetYear != 0 {
		ann.TargetYear.SetValid(na.TargetYear)
	}
	if na.TargetSemester != 0 {
		ann.TargetSemester.SetValid(na.TargetSemester)
	}

	ann, err := svc.repo.CreateAnnouncement(ctx, ann)
	if err != nil {
		return Announcement{}, err
	}

	svc.broadcaster.Broadcast(EventNewAnnouncement, ann)
	return ann, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetAnnouncementByID(ctx, id)
}

// ListVisible filters announcements down to what the given audience,
// department, year and semester may see right now.
func (svc *Service) ListVisible(ctx context.Context, aud Audience, departmentID string, year, semester int) ([]Announcement, error) {
	all, err := svc.repo.QueryAnnouncements(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	visible := make([]Announcement, 0, len(all))
	for _, ann := range all {
		if ann.VisibleTo(aud, departmentID, year, semester, now) {
			visible = append(visible, ann)
		}
	}
	return visible, nil
}

// ListAll returns every announcement including expired ones. Admin only.
func (svc *Service) ListAll(ctx context.Context) ([]Announcement, error) {
	return svc.repo.QueryAnnouncements(ctx)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteAnnouncement(ctx, id)
}

// Notifications

// Notify creates one notification per recipient. With no explicit
// recipients it fans out to every student.
func (svc *Service) Notify(ctx context.Context, nn NewNotification) error {
	recipients := nn.Recipients
	role := nn.Role
	if len(recipients) == 0 {
		ids, err := svc.students.ListStudentIDs(ctx)
		if err != nil {
			return errors.Wrap(err, "listing broadcast recipients")
		}
		recipients = ids
		role = "student"
	}

	now := time.Now().UTC()
	notifs := make([]Notification, 0, len(recipients))
	for _, rcpt := range recipients {
		notifs = append(notifs, Notification{
			RecipientID:   rcpt,
			RecipientRole: role,
			Title:         nn.Title,
			Message:       nn.Message,
			Category:      nn.Category,
			CreatedAt:     now,
		})
	}
	return svc.repo.CreateNotifications(ctx, notifs)
}

func (svc *Service) ListNotifications(ctx context.Context, recipientID string) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, recipientID)
}

// MarkRead flips the read flag; only the recipient may do so.
func (svc *Service) MarkRead(ctx context.Context, id, recipientID string) (Notification, error) {
	notif, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if notif.RecipientID != recipientID {
		return Notification{}, ErrNotRecipient
	}
	if notif.Read {
		return notif, nil
	}
	return svc.repo.MarkNotificationRead(ctx, id)
}
