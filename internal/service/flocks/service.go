// Package flocks owns the write paths for flocks and the records logged
// against them. Every mutation runs through the transactional executor.
package flocks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/internal/repository/postgres"
	"github.com/mamadbah2/flocktrack/internal/txn"
)

// Service manages flocks, breeds, egg logs and expenses.
type Service struct {
	store      *postgres.Store
	exec       *txn.Executor
	maxRetries int
	logger     *zap.Logger
}

// NewService wires a new flock service instance.
func NewService(store *postgres.Store, exec *txn.Executor, maxRetries int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, exec: exec, maxRetries: maxRetries, logger: logger}
}

func (s *Service) policy(operation string) txn.Policy {
	return txn.Policy{MaxRetries: s.maxRetries, Operation: operation}
}

// Authorize loads a live flock and checks that userID owns it.
func (s *Service) Authorize(ctx context.Context, userID, flockID string) (*models.Flock, error) {
	flock, err := s.store.GetFlock(ctx, flockID)
	if err != nil {
		return nil, err
	}
	if flock.UserID != userID {
		return nil, fmt.Errorf("flock %s: %w", flockID, models.ErrForbidden)
	}
	return flock, nil
}

// CreateFlock validates the input and persists a flock owned by userID.
func (s *Service) CreateFlock(ctx context.Context, userID string, input models.FlockInput) (*models.Flock, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	flock, err := txn.Run(ctx, s.exec, s.policy("create_flock"), func(tx *gorm.DB) (*models.Flock, error) {
		flock := &models.Flock{
			Name:        input.Name,
			Description: input.Description,
			ImageURL:    input.ImageURL,
			Type:        input.Type,
			UserID:      userID,
		}
		if err := s.store.WithTx(tx).CreateFlock(ctx, flock); err != nil {
			return nil, err
		}
		return flock, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("flock created", zap.String("flock_id", flock.ID), zap.String("user_id", userID))
	return flock, nil
}

// GetFlock returns a live flock with its breeds.
func (s *Service) GetFlock(ctx context.Context, flockID string) (*models.Flock, error) {
	return s.store.GetFlock(ctx, flockID)
}

// ListFlocks returns the caller's live flocks.
func (s *Service) ListFlocks(ctx context.Context, userID string) ([]models.Flock, error) {
	return s.store.ListFlocks(ctx, userID)
}

// UpdateFlock overwrites a flock's writable fields.
func (s *Service) UpdateFlock(ctx context.Context, flockID string, input models.FlockInput) (*models.Flock, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return txn.Run(ctx, s.exec, s.policy("update_flock"), func(tx *gorm.DB) (*models.Flock, error) {
		return s.store.WithTx(tx).UpdateFlock(ctx, flockID, input)
	})
}

// DeleteFlock removes a flock and clears it as the owner's default flock.
// It returns the flock as it was before deletion.
func (s *Service) DeleteFlock(ctx context.Context, flockID string) (*models.Flock, error) {
	flock, err := txn.Run(ctx, s.exec, s.policy("delete_flock"), func(tx *gorm.DB) (*models.Flock, error) {
		store := s.store.WithTx(tx)

		flock, err := store.DeleteFlock(ctx, flockID)
		if err != nil {
			return nil, err
		}

		owner, err := store.GetUser(ctx, flock.UserID)
		if errors.Is(err, models.ErrNotFound) {
			return flock, nil
		}
		if err != nil {
			return nil, err
		}
		if owner.DefaultFlockID != nil && *owner.DefaultFlockID == flockID {
			owner.DefaultFlockID = nil
			if err := store.SaveUser(ctx, owner); err != nil {
				return nil, err
			}
		}
		return flock, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("flock deleted", zap.String("flock_id", flockID), zap.String("mode", postgres.DeletePolicies[postgres.EntityFlock].String()))
	return flock, nil
}
