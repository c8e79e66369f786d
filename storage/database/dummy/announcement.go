package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tmalache/chuo/core/announcement"
)

type announcementRepository struct {
	announcements *table[announcement.Announcement]
	notifications *table[announcement.Notification]
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{announcements: db.announcements, notifications: db.notifications}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement) (announcement.Announcement, error) {
	repo.announcements.Lock()
	defer repo.announcements.Unlock()
	ann.ID = uuid.NewString()
	repo.announcements.rows[ann.ID] = &ann
	return ann, nil
}

func (repo *announcementRepository) GetAnnouncementByID(ctx context.Context, id string) (announcement.Announcement, error) {
	repo.announcements.RLock()
	defer repo.announcements.RUnlock()
	if ann, ok := repo.announcements.rows[id]; ok {
		return *ann, nil
	}
	return announcement.Announcement{}, announcement.ErrNotFound
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context) ([]announcement.Announcement, error) {
	repo.announcements.RLock()
	defer repo.announcements.RUnlock()
	anns := make([]announcement.Announcement, 0, len(repo.announcements.rows))
	for _, ann := range repo.announcements.rows {
		anns = append(anns, *ann)
	}
	sort.Slice(anns, func(i, j int) bool { return anns[i].CreatedAt.After(anns[j].CreatedAt) })
	return anns, nil
}

func (repo *announcementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	repo.announcements.Lock()
	defer repo.announcements.Unlock()
	if _, ok := repo.announcements.rows[id]; !ok {
		return announcement.ErrNotFound
	}
	delete(repo.announcements.rows, id)
	return nil
}

// Notifications

func (repo *announcementRepository) CreateNotifications(ctx context.Context, notifs []announcement.Notification) error {
	repo.notifications.Lock()
	defer repo.notifications.Unlock()
	for _, n := range notifs {
		n.ID = uuid.NewString()
		notif := n
		repo.notifications.rows[notif.ID] = &notif
	}
	return nil
}

func (repo *announcementRepository) QueryNotifications(ctx context.Context, recipientID string) ([]announcement.Notification, error) {
	repo.notifications.RLock()
	defer repo.notifications.RUnlock()
	notifs := make([]announcement.Notification, 0)
	for _, n := range repo.notifications.rows {
		if n.RecipientID == recipientID {
			notifs = append(notifs, *n)
		}
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	return notifs, nil
}

func (repo *announcementRepository) GetNotificationByID(ctx context.Context, id string) (announcement.Notification, error) {
	repo.notifications.RLock()
	defer repo.notifications.RUnlock()
	if n, ok := repo.notifications.rows[id]; ok {
		return *n, nil
	}
	return announcement.Notification{}, announcement.ErrNotifNotFound
}

func (repo *announcementRepository) MarkNotificationRead(ctx context.Context, id string) (announcement.Notification, error) {
	repo.notifications.Lock()
	defer repo.notifications.Unlock()
	n, ok := repo.notifications.rows[id]
	if !ok {
		return announcement.Notification{}, announcement.ErrNotifNotFound
	}
	n.Read = true
	return *n, nil
}
