package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mamadbah2/flocktrack/internal/daterange"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// CreateExpense inserts an expense.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if err := s.conn(ctx).Create(expense).Error; err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// ListExpenses returns a flock's expenses inside r, newest first.
func (s *Store) ListExpenses(ctx context.Context, flockID string, r daterange.Range) ([]models.Expense, error) {
	from, until := dayBounds(r)

	var expenses []models.Expense
	err := s.conn(ctx).
		Where("flock_id = ? AND date >= ? AND date < ?", flockID, from, until).
		Order("date DESC").Order("created_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes one expense of a flock according to DeletePolicies.
func (s *Store) DeleteExpense(ctx context.Context, flockID, id string) error {
	affected, err := s.deleteByPolicy(ctx, EntityExpense, &models.Expense{}, "id = ? AND flock_id = ?", id, flockID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *Store) expensesIn(ctx context.Context, flockID string, r daterange.Range) *gorm.DB {
	from, until := dayBounds(r)
	return s.conn(ctx).
		Table("expenses").
		Where("expenses.flock_id = ? AND expenses.date >= ? AND expenses.date < ?", flockID, from, until)
}

// ExpenseTotalsByCategory sums amounts per category inside r. Categories with
// no expenses are absent.
func (s *Store) ExpenseTotalsByCategory(ctx context.Context, flockID string, r daterange.Range) ([]models.CategoryTotal, error) {
	var rows []models.CategoryTotal
	err := s.expensesIn(ctx, flockID, r).
		Select("expenses.category AS category, COALESCE(SUM(expenses.amount), 0) AS total").
		Group("expenses.category").
		Order("expenses.category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("expense totals by category: %w", err)
	}
	if rows == nil {
		rows = []models.CategoryTotal{}
	}
	return rows, nil
}

// ExpenseTotal sums every amount inside r; zero when there are none.
func (s *Store) ExpenseTotal(ctx context.Context, flockID string, r daterange.Range) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := s.expensesIn(ctx, flockID, r).
		Select("COALESCE(SUM(expenses.amount), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("expense total: %w", err)
	}
	return row.Total, nil
}

// MonthlyExpenseTotals sums amounts per "MM/YYYY" label and category inside r.
func (s *Store) MonthlyExpenseTotals(ctx context.Context, flockID string, r daterange.Range) ([]models.MonthCategoryTotal, error) {
	q := s.expensesIn(ctx, flockID, r)
	label := monthLabel(q, "expenses.date")

	var rows []models.MonthCategoryTotal
	err := q.
		Select(label + " AS label, expenses.category AS category, COALESCE(SUM(expenses.amount), 0) AS total").
		Group(label + ", expenses.category").
		Order("MIN(expenses.date) ASC").Order("expenses.category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("monthly expense totals: %w", err)
	}
	if rows == nil {
		rows = []models.MonthCategoryTotal{}
	}
	return rows, nil
}
