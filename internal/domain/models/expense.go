package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory enumerates the supported expense buckets.
type ExpenseCategory string

const (
	CategoryFeed        ExpenseCategory = "feed"
	CategorySupplements ExpenseCategory = "supplements"
	CategoryHealthcare  ExpenseCategory = "healthcare"
	CategoryEquipment   ExpenseCategory = "equipment"
	CategoryBedding     ExpenseCategory = "bedding"
	CategoryOther       ExpenseCategory = "other"
)

// ExpenseCategories lists every category in display order.
var ExpenseCategories = []ExpenseCategory{
	CategoryFeed,
	CategorySupplements,
	CategoryHealthcare,
	CategoryEquipment,
	CategoryBedding,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c ExpenseCategory) Valid() bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Expense is a dated monetary outlay against a flock.
type Expense struct {
	Base
	Date     time.Time       `gorm:"type:date;not null;index:idx_expenses_flock_date,priority:2" json:"date"`
	Amount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Category ExpenseCategory `gorm:"size:32;not null" json:"category"`
	Memo     string          `json:"memo,omitempty"`
	FlockID  string          `gorm:"size:36;not null;index:idx_expenses_flock_date,priority:1" json:"flockId"`
}
