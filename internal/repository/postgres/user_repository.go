package postgres

import (
	"context"
	"fmt"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// FindUserByExternalID matches either the primary or the linked secondary
// identity.
func (s *Store) FindUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	err := s.conn(ctx).
		Where("external_id = ? OR secondary_external_id = ?", externalID, externalID).
		First(&user).Error
	if err != nil {
		return nil, notFound(err, "user", externalID)
	}
	return &user, nil
}

// GetUser loads a user by internal ID.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.conn(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SaveUser persists every field of an existing user.
func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	if err := s.conn(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}
