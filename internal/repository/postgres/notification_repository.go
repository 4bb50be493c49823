package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// CreateNotification inserts a notification.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := s.conn(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	q := s.conn(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []models.Notification
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// NotificationExists reports whether userID already has a notification
// pointing at link.
func (s *Store) NotificationExists(ctx context.Context, userID, link string) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND link = ?", userID, link).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("find notification: %w", err)
	}
	return count > 0, nil
}

// GetNotification loads one notification.
func (s *Store) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := s.conn(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, notFound(err, "notification", id)
	}
	return &n, nil
}

// MarkNotificationRead flags a notification as read at the given instant.
// Marking an already read notification keeps the original ReadAt.
func (s *Store) MarkNotificationRead(ctx context.Context, n *models.Notification, at time.Time) error {
	if n.Read {
		return nil
	}
	n.Read = true
	n.ReadAt = &at
	if err := s.conn(ctx).Model(n).Select("read", "read_at").Updates(n).Error; err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
