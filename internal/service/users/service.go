// Package users maps identities from the external provider onto local users.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/internal/repository/postgres"
	"github.com/mamadbah2/flocktrack/internal/txn"
)

// Service resolves and updates users.
type Service struct {
	store      *postgres.Store
	exec       *txn.Executor
	maxRetries int
	logger     *zap.Logger
}

// NewService wires a new user service instance.
func NewService(store *postgres.Store, exec *txn.Executor, maxRetries int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, exec: exec, maxRetries: maxRetries, logger: logger}
}

func (s *Service) policy(operation string) txn.Policy {
	return txn.Policy{MaxRetries: s.maxRetries, Operation: operation}
}

// Resolve returns the user behind identity, creating it on first sight and
// refreshing the profile fields when the provider reports new values.
func (s *Service) Resolve(ctx context.Context, identity models.Identity) (*models.User, error) {
	if strings.TrimSpace(identity.ExternalID) == "" {
		return nil, fmt.Errorf("%w: identity has no subject", models.ErrValidation)
	}

	user, err := txn.Run(ctx, s.exec, s.policy("resolve_user"), func(tx *gorm.DB) (*models.User, error) {
		store := s.store.WithTx(tx)

		user, err := store.FindUserByExternalID(ctx, identity.ExternalID)
		if errors.Is(err, models.ErrNotFound) {
			user = &models.User{
				ExternalID: identity.ExternalID,
				Name:       identity.Name,
				Email:      identity.Email,
				ImageURL:   identity.ImageURL,
			}
			if err := store.CreateUser(ctx, user); err != nil {
				return nil, err
			}
			s.logger.Info("user created", zap.String("user_id", user.ID))
			return user, nil
		}
		if err != nil {
			return nil, err
		}

		if refreshProfile(user, identity) {
			if err := store.SaveUser(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	})
	if err == nil {
		return user, nil
	}

	// A concurrent first request may have inserted the same identity.
	if existing, findErr := s.store.FindUserByExternalID(ctx, identity.ExternalID); findErr == nil {
		return existing, nil
	}
	return nil, err
}

func refreshProfile(user *models.User, identity models.Identity) bool {
	changed := false
	if identity.Name != "" && identity.Name != user.Name {
		user.Name = identity.Name
		changed = true
	}
	if identity.Email != "" && identity.Email != user.Email {
		user.Email = identity.Email
		changed = true
	}
	if identity.ImageURL != "" && identity.ImageURL != user.ImageURL {
		user.ImageURL = identity.ImageURL
		changed = true
	}
	return changed
}

// LinkSecondaryIdentity attaches a second provider account to userID.
func (s *Service) LinkSecondaryIdentity(ctx context.Context, userID, externalID string) (*models.User, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, fmt.Errorf("%w: external id is required", models.ErrValidation)
	}

	return txn.Run(ctx, s.exec, s.policy("link_identity"), func(tx *gorm.DB) (*models.User, error) {
		store := s.store.WithTx(tx)

		user, err := store.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}

		holder, err := store.FindUserByExternalID(ctx, externalID)
		switch {
		case err == nil && holder.ID != user.ID:
			return nil, fmt.Errorf("identity %s belongs to another user: %w", externalID, models.ErrConflict)
		case err == nil:
			return user, nil
		case !errors.Is(err, models.ErrNotFound):
			return nil, err
		}

		user.SecondaryExternalID = &externalID
		if err := store.SaveUser(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	})
}

// SetDefaultFlock records the flock a user lands on. The flock must be live
// and owned by the user.
func (s *Service) SetDefaultFlock(ctx context.Context, userID, flockID string) (*models.User, error) {
	return txn.Run(ctx, s.exec, s.policy("set_default_flock"), func(tx *gorm.DB) (*models.User, error) {
		store := s.store.WithTx(tx)

		flock, err := store.GetFlock(ctx, flockID)
		if err != nil {
			return nil, err
		}
		if flock.UserID != userID {
			return nil, fmt.Errorf("flock %s: %w", flockID, models.ErrForbidden)
		}

		user, err := store.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		user.DefaultFlockID = &flock.ID
		if err := store.SaveUser(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	})
}
