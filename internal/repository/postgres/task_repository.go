package postgres

import (
	"context"
	"fmt"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// CreateTask inserts a task.
func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	if err := s.conn(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetTask loads one task of a flock.
func (s *Store) GetTask(ctx context.Context, flockID, id string) (*models.Task, error) {
	var task models.Task
	if err := s.conn(ctx).Where("id = ? AND flock_id = ?", id, flockID).First(&task).Error; err != nil {
		return nil, notFound(err, "task", id)
	}
	return &task, nil
}

// ListTasks returns a flock's tasks ordered by due date (undated last).
func (s *Store) ListTasks(ctx context.Context, flockID string, includeCompleted bool) ([]models.Task, error) {
	q := s.conn(ctx).Where("flock_id = ?", flockID)
	if !includeCompleted {
		q = q.Where("completed = ?", false)
	}

	var tasks []models.Task
	err := q.
		Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END").
		Order("due_date ASC").Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// SaveTask persists every field of an existing task.
func (s *Store) SaveTask(ctx context.Context, task *models.Task) error {
	if err := s.conn(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// DeleteTask removes a task according to DeletePolicies.
func (s *Store) DeleteTask(ctx context.Context, flockID, id string) error {
	affected, err := s.deleteByPolicy(ctx, EntityTask, &models.Task{}, "id = ? AND flock_id = ?", id, flockID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	return nil
}
