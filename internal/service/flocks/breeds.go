package flocks

import (
	"context"

	"gorm.io/gorm"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/internal/txn"
)

// CreateBreed adds a breed to a live flock.
func (s *Service) CreateBreed(ctx context.Context, flockID string, input models.BreedInput) (*models.Breed, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return txn.Run(ctx, s.exec, s.policy("create_breed"), func(tx *gorm.DB) (*models.Breed, error) {
		store := s.store.WithTx(tx)
		if _, err := store.GetFlock(ctx, flockID); err != nil {
			return nil, err
		}

		breed := &models.Breed{
			Name:              input.Name,
			Description:       input.Description,
			ImageURL:          input.ImageURL,
			AverageProduction: input.AverageProduction,
			Count:             input.Count,
			FlockID:           flockID,
		}
		if err := store.CreateBreed(ctx, breed); err != nil {
			return nil, err
		}
		return breed, nil
	})
}

// ListBreeds returns a flock's live breeds.
func (s *Service) ListBreeds(ctx context.Context, flockID string) ([]models.Breed, error) {
	return s.store.ListBreeds(ctx, flockID)
}

// UpdateBreed overwrites a breed's writable fields.
func (s *Service) UpdateBreed(ctx context.Context, flockID, breedID string, input models.BreedInput) (*models.Breed, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return txn.Run(ctx, s.exec, s.policy("update_breed"), func(tx *gorm.DB) (*models.Breed, error) {
		return s.store.WithTx(tx).UpdateBreed(ctx, flockID, breedID, input)
	})
}

// DeleteBreed soft-deletes a breed; its egg logs stay attributed to it.
func (s *Service) DeleteBreed(ctx context.Context, flockID, breedID string) error {
	return txn.Exec(ctx, s.exec, s.policy("delete_breed"), func(tx *gorm.DB) error {
		return s.store.WithTx(tx).DeleteBreed(ctx, flockID, breedID)
	})
}
