package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tmalache/chuo/core/announcement"
)

type announcementRow struct {
	ID             string      `db:"id"`
	Title          string      `db:"title"`
	Content        string      `db:"content"`
	Category       string      `db:"category"`
	Priority       string      `db:"priority"`
	Audience       string      `db:"audience"`
	DepartmentID   null.String `db:"department_id"`
	TargetYear     null.Int    `db:"target_year"`
	TargetSemester null.Int    `db:"target_semester"`
	CreatedBy      string      `db:"created_by"`
	ExpiresAt      null.Time   `db:"expires_at"`
	CreatedAt      time.Time   `db:"created_at"`
}

func (r announcementRow) toDomain() announcement.Announcement {
	return announcement.Announcement{
		ID:             r.ID,
		Title:          r.Title,
		Content:        r.Content,
		Category:       r.Category,
		Priority:       r.Priority,
		Audience:       announcement.Audience(r.Audience),
		DepartmentID:   r.DepartmentID,
		TargetYear:     r.TargetYear,
		TargetSemester: r.TargetSemester,
		CreatedBy:      r.CreatedBy,
		ExpiresAt:      r.ExpiresAt,
		CreatedAt:      r.CreatedAt,
	}
}

const announcementCols = `id, title, content, category, priority, audience, department_id,
	target_year, target_semester, created_by, expires_at, created_at`

type announcementRepository struct {
	db *sqlx.DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) announcement.Repository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement) (announcement.Announcement, error) {
	q := `
	INSERT INTO announcement (title, content, category, priority, audience, department_id,
		target_year, target_semester, created_by, expires_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		ann.Title, ann.Content, ann.Category, ann.Priority, string(ann.Audience), ann.DepartmentID,
		ann.TargetYear, ann.TargetSemester, ann.CreatedBy, ann.ExpiresAt, ann.CreatedAt,
	).Scan(&ann.ID)
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "creating announcement")
	}
	return ann, nil
}

func (repo *announcementRepository) GetAnnouncementByID(ctx context.Context, id string) (announcement.Announcement, error) {
	var row announcementRow
	q := `SELECT ` + announcementCols + ` FROM announcement WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return announcement.Announcement{}, announcement.ErrNotFound
		}
		return announcement.Announcement{}, errors.Wrap(err, "getting announcement")
	}
	return row.toDomain(), nil
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context) ([]announcement.Announcement, error) {
	q := `SELECT ` + announcementCols + ` FROM announcement ORDER BY created_at DESC`
	var rows []announcementRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	anns := make([]announcement.Announcement, 0, len(rows))
	for _, row := range rows {
		anns = append(anns, row.toDomain())
	}
	return anns, nil
}

func (repo *announcementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM announcement WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return announcement.ErrNotFound
	}
	return nil
}

// Notifications

func (repo *announcementRepository) CreateNotifications(ctx context.Context, notifs []announcement.Notification) error {
	if len(notifs) == 0 {
		return nil
	}
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning notifications tx")
	}
	defer func() { _ = tx.Rollback() }()

	q := `
	INSERT INTO notification (recipient_id, recipient_role, title, message, category, read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, n := range notifs {
		if _, err = tx.ExecContext(ctx, q, n.RecipientID, n.RecipientRole, n.Title, n.Message, n.Category, n.Read, n.CreatedAt); err != nil {
			return errors.Wrap(err, "creating notification")
		}
	}
	return errors.Wrap(tx.Commit(), "committing notifications tx")
}

func (repo *announcementRepository) QueryNotifications(ctx context.Context, recipientID string) ([]announcement.Notification, error) {
	notifs := make([]announcement.Notification, 0)
	q := `
	SELECT id, recipient_id, recipient_role, title, message, category, read, created_at
	FROM notification WHERE recipient_id = $1
	ORDER BY created_at DESC`
	rows, err := repo.db.QueryxContext(ctx, q, recipientID)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var n announcement.Notification
		if err = rows.Scan(&n.ID, &n.RecipientID, &n.RecipientRole, &n.Title, &n.Message, &n.Category, &n.Read, &n.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning notification")
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

func (repo *announcementRepository) GetNotificationByID(ctx context.Context, id string) (announcement.Notification, error) {
	var n announcement.Notification
	q := `SELECT id, recipient_id, recipient_role, title, message, category, read, created_at FROM notification WHERE id = $1`
	if err := repo.db.QueryRowxContext(ctx, q, id).
		Scan(&n.ID, &n.RecipientID, &n.RecipientRole, &n.Title, &n.Message, &n.Category, &n.Read, &n.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return announcement.Notification{}, announcement.ErrNotifNotFound
		}
		return announcement.Notification{}, errors.Wrap(err, "getting notification")
	}
	return n, nil
}

func (repo *announcementRepository) MarkNotificationRead(ctx context.Context, id string) (announcement.Notification, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE notification SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return announcement.Notification{}, errors.Wrap(err, "marking notification read")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return announcement.Notification{}, announcement.ErrNotifNotFound
	}
	return repo.GetNotificationByID(ctx, id)
}
