package postgres

import (
	"context"
	"fmt"

	"github.com/mamadbah2/flocktrack/internal/daterange"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// CreateEggLog inserts a daily count.
func (s *Store) CreateEggLog(ctx context.Context, log *models.EggLog) error {
	if err := s.conn(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("create egg log: %w", err)
	}
	return nil
}

// ListEggLogs returns the full rows of a flock inside r, newest first.
func (s *Store) ListEggLogs(ctx context.Context, flockID string, r daterange.Range) ([]models.EggLog, error) {
	from, until := dayBounds(r)

	var logs []models.EggLog
	err := s.conn(ctx).
		Where("flock_id = ? AND date >= ? AND date < ?", flockID, from, until).
		Order("date DESC").Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list egg logs: %w", err)
	}
	return logs, nil
}

// DeleteEggLog removes one log of a flock according to DeletePolicies.
func (s *Store) DeleteEggLog(ctx context.Context, flockID, id string) error {
	affected, err := s.deleteByPolicy(ctx, EntityEggLog, &models.EggLog{}, "id = ? AND flock_id = ?", id, flockID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("egg log %s: %w", id, models.ErrNotFound)
	}
	return nil
}
