package postgres

import (
	"context"
	"fmt"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// CreateBreed inserts a breed under its flock.
func (s *Store) CreateBreed(ctx context.Context, breed *models.Breed) error {
	if err := s.conn(ctx).Create(breed).Error; err != nil {
		return fmt.Errorf("create breed: %w", err)
	}
	return nil
}

// ListBreeds returns the live breeds of a flock.
func (s *Store) ListBreeds(ctx context.Context, flockID string) ([]models.Breed, error) {
	var breeds []models.Breed
	if err := s.conn(ctx).Where("flock_id = ?", flockID).Order("created_at ASC").Find(&breeds).Error; err != nil {
		return nil, fmt.Errorf("list breeds: %w", err)
	}
	return breeds, nil
}

// GetBreed loads a live breed of a flock.
func (s *Store) GetBreed(ctx context.Context, flockID, id string) (*models.Breed, error) {
	var breed models.Breed
	if err := s.conn(ctx).Where("id = ? AND flock_id = ?", id, flockID).First(&breed).Error; err != nil {
		return nil, notFound(err, "breed", id)
	}
	return &breed, nil
}

// UpdateBreed overwrites the writable fields of a live breed.
func (s *Store) UpdateBreed(ctx context.Context, flockID, id string, input models.BreedInput) (*models.Breed, error) {
	breed, err := s.GetBreed(ctx, flockID, id)
	if err != nil {
		return nil, err
	}

	breed.Name = input.Name
	breed.Description = input.Description
	breed.ImageURL = input.ImageURL
	breed.AverageProduction = input.AverageProduction
	breed.Count = input.Count

	if err := s.conn(ctx).Save(breed).Error; err != nil {
		return nil, fmt.Errorf("update breed: %w", err)
	}
	return breed, nil
}

// DeleteBreed removes a breed according to DeletePolicies. Egg logs that
// reference it are kept.
func (s *Store) DeleteBreed(ctx context.Context, flockID, id string) error {
	affected, err := s.deleteByPolicy(ctx, EntityBreed, &models.Breed{}, "id = ? AND flock_id = ?", id, flockID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("breed %s: %w", id, models.ErrNotFound)
	}
	return nil
}
