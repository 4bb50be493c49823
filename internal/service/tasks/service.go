// Package tasks manages flock to-do items and their recurrence.
package tasks

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

// Completion is the outcome of completing a task. Next is the spawned
// successor of a recurring task and nil otherwise.
type Completion struct {
	Completed *models.Task `json:"completed"`
	Next      *models.Task `json:"next,omitempty"`
}

// Service manages tasks.
type Service struct {
	store      *postgres.Store
	exec       *txn.Executor
	maxRetries int
	now        func() time.Time
	logger     *zap.Logger
}

// NewService wires a new task service instance.
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

// WithClock replaces the completion timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) policy(operation string) txn.Policy {
	return txn.Policy{MaxRetries: s.maxRetries, Operation: operation}
}

// CreateTask adds a pending task to a live flock on behalf of userID.
func (s *Service) CreateTask(ctx context.Context, flockID, userID string, input models.TaskInput) (*models.Task, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	return txn.Run(ctx, s.exec, s.policy("create_task"), func(tx *gorm.DB) (*models.Task, error) {
		store := s.store.WithTx(tx)
		if _, err := store.GetFlock(ctx, flockID); err != nil {
			return nil, err
		}

		task := &models.Task{
			Title:       input.Title,
			Description: input.Description,
			DueDate:     input.DueDateValue(),
			Recurrence:  input.RecurrenceValue(),
			Status:      models.TaskStatusPending,
			FlockID:     flockID,
			UserID:      userID,
		}
		if err := store.CreateTask(ctx, task); err != nil {
			return nil, err
		}
		return task, nil
	})
}

// ListTasks returns a flock's tasks; completed ones only when asked.
func (s *Service) ListTasks(ctx context.Context, flockID string, includeCompleted bool) ([]models.Task, error) {
	return s.store.ListTasks(ctx, flockID, includeCompleted)
}

// UpdateTask overwrites a task's writable fields.
func (s *Service) UpdateTask(ctx context.Context, flockID, taskID string, input models.TaskInput) (*models.Task, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	return txn.Run(ctx, s.exec, s.policy("update_task"), func(tx *gorm.DB) (*models.Task, error) {
		store := s.store.WithTx(tx)
		task, err := store.GetTask(ctx, flockID, taskID)
		if err != nil {
			return nil, err
		}

		task.Title = input.Title
		task.Description = input.Description
		task.DueDate = input.DueDateValue()
		task.Recurrence = input.RecurrenceValue()
		if err := store.SaveTask(ctx, task); err != nil {
			return nil, err
		}
		return task, nil
	})
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, flockID, taskID string) error {
	return txn.Exec(ctx, s.exec, s.policy("delete_task"), func(tx *gorm.DB) error {
		return s.store.WithTx(tx).DeleteTask(ctx, flockID, taskID)
	})
}

// CompleteTask marks a task completed. A recurring task spawns exactly one
// successor in the same transaction, due one interval after the original and
// otherwise identical. Completing a completed task is a conflict.
func (s *Service) CompleteTask(ctx context.Context, flockID, taskID string) (*Completion, error) {
	result, err := txn.Run(ctx, s.exec, s.policy("complete_task"), func(tx *gorm.DB) (*Completion, error) {
		store := s.store.WithTx(tx)

		task, err := store.GetTask(ctx, flockID, taskID)
		if err != nil {
			return nil, err
		}
		if task.Completed {
			return nil, fmt.Errorf("task %s already completed: %w", taskID, models.ErrConflict)
		}

		completedAt := s.now()
		task.Completed = true
		task.CompletedAt = &completedAt
		task.Status = models.TaskStatusCompleted
		if err := store.SaveTask(ctx, task); err != nil {
			return nil, err
		}

		out := &Completion{Completed: task}
		if task.Recurrence == models.RecurrenceNever || task.DueDate == nil {
			return out, nil
		}

		due, err := task.Recurrence.Advance(*task.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
		}
		next := &models.Task{
			Title:       task.Title,
			Description: task.Description,
			DueDate:     &due,
			Recurrence:  task.Recurrence,
			Status:      models.TaskStatusPending,
			FlockID:     task.FlockID,
			UserID:      task.UserID,
		}
		if err := store.CreateTask(ctx, next); err != nil {
			return nil, err
		}
		out.Next = next
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("task_id", taskID), zap.String("flock_id", flockID)}
	if result.Next != nil {
		fields = append(fields, zap.String("next_task_id", result.Next.ID))
	}
	s.logger.Info("task completed", fields...)
	return result, nil
}
