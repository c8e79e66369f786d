package announcement

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tmalache/chuo/core"
)

// Audience selects which role an announcement targets.
type Audience string

const (
	AudienceAll      Audience = "all"
	AudienceStudents Audience = "students"
	AudienceFaculty  Audience = "faculty"
)

var allAudiences = map[Audience]bool{
	AudienceAll:      true,
	AudienceStudents: true,
	AudienceFaculty:  true,
}

// Announcement priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

var allPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityNormal: true,
	PriorityHigh:   true,
}

// Announcement targets a role audience, optionally narrowed by
// department, study year and semester; unset target fields match
// everyone. Visibility is evaluated at query time, never materialized
// per student.
type Announcement struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Content        string      `json:"content"`
	Category       string      `json:"category"`
	Priority       string      `json:"priority"`
	Audience       Audience    `json:"audience"`
	DepartmentID   null.String `json:"department_id"`
	TargetYear     null.Int    `json:"target_year"`
	TargetSemester null.Int    `json:"target_semester"`
	CreatedBy      string      `json:"created_by"` // admin id
	ExpiresAt      null.Time   `json:"expires_at"`
	CreatedAt      time.Time   `json:"created_at"` // UTC
}

// VisibleTo reports whether the announcement targets the given audience,
// department, year and semester at time t. Zero year/semester only match
// untargeted announcements.
func (a Announcement) VisibleTo(aud Audience, departmentID string, year, semester int, t time.Time) bool {
	if a.ExpiresAt.Valid && a.ExpiresAt.Time.Before(t) {
		return false
	}
	if a.Audience != AudienceAll && a.Audience != aud {
		return false
	}
	if a.DepartmentID.Valid && a.DepartmentID.String != departmentID {
		return false
	}
	if a.TargetYear.Valid && a.TargetYear.Int != year {
		return false
	}
	if a.TargetSemester.Valid && a.TargetSemester.Int != semester {
		return false
	}
	return true
}

// Notification is a per-recipient message with read state.
type Notification struct {
	ID            string    `json:"id"`
	RecipientID   string    `json:"recipient_id"`
	RecipientRole string    `json:"recipient_role"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Category      string    `json:"category"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

type Repository interface {
	CreateAnnouncement(ctx context.Context, ann Announcement) (Announcement, error)
	GetAnnouncementByID(ctx context.Context, id string) (Announcement, error)
	// QueryAnnouncements returns announcements newest first.
	QueryAnnouncements(ctx context.Context) ([]Announcement, error)
	DeleteAnnouncement(ctx context.Context, id string) error

	CreateNotifications(ctx context.Context, notifs []Notification) error
	// QueryNotifications returns a recipient's notifications newest first.
	QueryNotifications(ctx context.Context, recipientID string) ([]Notification, error)
	GetNotificationByID(ctx context.Context, id string) (Notification, error)
	MarkNotificationRead(ctx context.Context, id string) (Notification, error)
}

// Broadcaster pushes events to connected websocket subscribers. No acks,
// no retries; the realtime hub satisfies this.
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

// StudentDirectory resolves the recipients of a broadcast notification.
type StudentDirectory interface {
	ListStudentIDs(ctx context.Context) ([]string, error)
}

// NewAnnouncement contains information needed to publish an Announcement.
type NewAnnouncement struct {
	Title          string   `json:"title" validate:"required"`
	Content        string   `json:"content" validate:"required"`
	Category       string   `json:"category"`
	Priority       string   `json:"priority"`
	Audience       Audience `json:"audience"`
	DepartmentID   string   `json:"department_id"`
	TargetYear     int      `json:"target_year" validate:"omitempty,min=1,max=6"`
	TargetSemester int      `json:"target_semester" validate:"omitempty,min=1,max=12"`
	ExpiresAt      string   `json:"expires_at"` // RFC3339, optional

	expiresAt null.Time
}

func (na *NewAnnouncement) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	na.Category = core.CleanString(na.Category)
	if na.Audience == "" {
		na.Audience = AudienceAll
	}
	if na.Priority == "" {
		na.Priority = PriorityNormal
	}
	if err := core.Validate.Struct(na); err != nil {
		return err
	}
	if !allAudiences[na.Audience] {
		return core.NewValidationError(ErrUnknownAudience, core.FieldError{Field: "audience", Error: ErrUnknownAudience.Error()})
	}
	if !allPriorities[na.Priority] {
		return core.NewValidationError(ErrUnknownPriority, core.FieldError{Field: "priority", Error: ErrUnknownPriority.Error()})
	}
	if na.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, na.ExpiresAt)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "expires_at", Error: "expires_at must be RFC3339"})
		}
		na.expiresAt = null.TimeFrom(t.UTC())
	}
	return nil
}

// NewNotification contains information needed to notify recipients.
// An empty Recipients list is a broadcast to every student.
type NewNotification struct {
	Title      string   `json:"title" validate:"required"`
	Message    string   `json:"message" validate:"required"`
	Category   string   `json:"category"`
	Role       string   `json:"role" validate:"required"`
	Recipients []string `json:"recipients"`
}

func (nn *NewNotification) Validate() error {
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	nn.Category = core.CleanString(nn.Category)
	return core.Validate.Struct(nn)
}
