// Package notifications lists and acknowledges in-app notifications.
package notifications

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/internal/repository/postgres"
	"github.com/mamadbah2/flocktrack/internal/txn"
)

const defaultListLimit = 50

// Service manages notifications.
type Service struct {
	store      *postgres.Store
	exec       *txn.Executor
	maxRetries int
	now        func() time.Time
	logger     *zap.Logger
}

// NewService wires a new notification service instance.
func NewService(store *postgres.Store, exec *txn.Executor, maxRetries int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		exec:       exec,
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
}

// WithClock replaces the read timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// NotifyOnce stores n unless its user already has a notification with the
// same link, and reports whether a row was created.
func (s *Service) NotifyOnce(ctx context.Context, n *models.Notification) (bool, error) {
	if n.UserID == "" || n.Title == "" {
		return false, fmt.Errorf("%w: notification needs a user and a title", models.ErrValidation)
	}
	if n.Link == "" {
		return false, fmt.Errorf("%w: notification link is required", models.ErrValidation)
	}
	return txn.Run(ctx, s.exec, txn.Policy{MaxRetries: s.maxRetries, Operation: "create_notification_once"}, func(tx *gorm.DB) (bool, error) {
		store := s.store.WithTx(tx)

		exists, err := store.NotificationExists(ctx, n.UserID, n.Link)
		if err != nil || exists {
			return false, err
		}
		if err := store.CreateNotification(ctx, n); err != nil {
			return false, err
		}
		return true, nil
	})
}

// List returns the newest notifications of userID. A non-positive limit
// falls back to the default page size.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListNotifications(ctx, userID, unreadOnly, limit)
}

// MarkRead flags a notification of userID as read. Marking twice keeps the
// first read time.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	return txn.Run(ctx, s.exec, txn.Policy{MaxRetries: s.maxRetries, Operation: "mark_notification_read"}, func(tx *gorm.DB) (*models.Notification, error) {
		store := s.store.WithTx(tx)

		n, err := store.GetNotification(ctx, notificationID)
		if err != nil {
			return nil, err
		}
		if n.UserID != userID {
			return nil, fmt.Errorf("notification %s: %w", notificationID, models.ErrForbidden)
		}
		if err := store.MarkNotificationRead(ctx, n, s.now()); err != nil {
			return nil, err
		}
		return n, nil
	})
}
