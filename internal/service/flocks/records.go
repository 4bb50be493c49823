package flocks

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mamadbah2/flocktrack/internal/daterange"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/internal/txn"
)

// CreateEggLog records a day's count. A referenced breed must be a live breed
// of the same flock.
func (s *Service) CreateEggLog(ctx context.Context, flockID string, input models.EggLogInput) (*models.EggLog, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	log, err := txn.Run(ctx, s.exec, s.policy("create_egg_log"), func(tx *gorm.DB) (*models.EggLog, error) {
		store := s.store.WithTx(tx)
		if _, err := store.GetFlock(ctx, flockID); err != nil {
			return nil, err
		}
		if input.BreedID != nil {
			if _, err := store.GetBreed(ctx, flockID, *input.BreedID); err != nil {
				return nil, err
			}
		}

		log := input.ToEggLog(flockID)
		if err := store.CreateEggLog(ctx, &log); err != nil {
			return nil, err
		}
		return &log, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("egg log recorded",
		zap.String("flock_id", flockID),
		zap.String("date", log.Date.Format(models.DateLayout)),
		zap.Int("count", log.Count))
	return log, nil
}

// ListEggLogs returns a flock's egg logs inside r.
func (s *Service) ListEggLogs(ctx context.Context, flockID string, r daterange.Range) ([]models.EggLog, error) {
	return s.store.ListEggLogs(ctx, flockID, r)
}

// DeleteEggLog removes one egg log.
func (s *Service) DeleteEggLog(ctx context.Context, flockID, logID string) error {
	return txn.Exec(ctx, s.exec, s.policy("delete_egg_log"), func(tx *gorm.DB) error {
		return s.store.WithTx(tx).DeleteEggLog(ctx, flockID, logID)
	})
}

// CreateExpense records an expense against a live flock.
func (s *Service) CreateExpense(ctx context.Context, flockID string, input models.ExpenseInput) (*models.Expense, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	return txn.Run(ctx, s.exec, s.policy("create_expense"), func(tx *gorm.DB) (*models.Expense, error) {
		store := s.store.WithTx(tx)
		if _, err := store.GetFlock(ctx, flockID); err != nil {
			return nil, err
		}

		expense := input.ToExpense(flockID)
		if err := store.CreateExpense(ctx, &expense); err != nil {
			return nil, err
		}
		return &expense, nil
	})
}

// ListExpenses returns a flock's expenses inside r.
func (s *Service) ListExpenses(ctx context.Context, flockID string, r daterange.Range) ([]models.Expense, error) {
	return s.store.ListExpenses(ctx, flockID, r)
}

// DeleteExpense removes one expense.
func (s *Service) DeleteExpense(ctx context.Context, flockID, expenseID string) error {
	return txn.Exec(ctx, s.exec, s.policy("delete_expense"), func(tx *gorm.DB) error {
		return s.store.WithTx(tx).DeleteExpense(ctx, flockID, expenseID)
	})
}
