package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// CreateFlock inserts a new flock.
func (s *Store) CreateFlock(ctx context.Context, flock *models.Flock) error {
	if err := s.conn(ctx).Create(flock).Error; err != nil {
		return fmt.Errorf("create flock: %w", err)
	}
	return nil
}

// GetFlock loads a live flock with its live breeds.
func (s *Store) GetFlock(ctx context.Context, id string) (*models.Flock, error) {
	var flock models.Flock
	err := s.conn(ctx).
		Preload("Breeds", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&flock).Error
	if err != nil {
		return nil, notFound(err, "flock", id)
	}
	return &flock, nil
}

// ListFlocks returns the live flocks owned by userID, oldest first.
func (s *Store) ListFlocks(ctx context.Context, userID string) ([]models.Flock, error) {
	var flocks []models.Flock
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&flocks).Error; err != nil {
		return nil, fmt.Errorf("list flocks: %w", err)
	}
	return flocks, nil
}

// ListAllFlocks returns every live flock; used by batch jobs.
func (s *Store) ListAllFlocks(ctx context.Context) ([]models.Flock, error) {
	var flocks []models.Flock
	if err := s.conn(ctx).Order("created_at ASC").Find(&flocks).Error; err != nil {
		return nil, fmt.Errorf("list all flocks: %w", err)
	}
	return flocks, nil
}

// UpdateFlock overwrites the writable fields of a live flock.
func (s *Store) UpdateFlock(ctx context.Context, id string, input models.FlockInput) (*models.Flock, error) {
	var flock models.Flock
	if err := s.conn(ctx).Where("id = ?", id).First(&flock).Error; err != nil {
		return nil, notFound(err, "flock", id)
	}

	flock.Name = input.Name
	flock.Description = input.Description
	flock.ImageURL = input.ImageURL
	flock.Type = input.Type

	if err := s.conn(ctx).Save(&flock).Error; err != nil {
		return nil, fmt.Errorf("update flock: %w", err)
	}
	return &flock, nil
}

// DeleteFlock reads the flock and removes it according to DeletePolicies.
// The returned flock is the row as it was before deletion.
func (s *Store) DeleteFlock(ctx context.Context, id string) (*models.Flock, error) {
	var flock models.Flock
	if err := s.conn(ctx).Where("id = ?", id).First(&flock).Error; err != nil {
		return nil, notFound(err, "flock", id)
	}

	if _, err := s.deleteByPolicy(ctx, EntityFlock, &models.Flock{}, "id = ?", id); err != nil {
		return nil, err
	}
	return &flock, nil
}
