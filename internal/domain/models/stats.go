package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BreedFilter restricts egg-log aggregation to a set of breeds. A nil
// *BreedFilter means "no filter"; a non-nil filter with no IDs matches no rows.
type BreedFilter struct {
	IDs []string
}

// OnlyBreeds builds a filter for the given breed IDs. OnlyBreeds() with no
// arguments is the empty filter.
func OnlyBreeds(ids ...string) *BreedFilter {
	return &BreedFilter{IDs: append([]string{}, ids...)}
}

// EggLogPoint is a raw (date, count) row used for charting.
type EggLogPoint struct {
	Date    time.Time `json:"date"`
	Count   int       `json:"count"`
	BreedID *string   `json:"breedId,omitempty"`
}

// LogStats aggregates egg counts over an interval. Avg and Max are nil when
// no rows matched.
type LogStats struct {
	Sum   int64    `json:"sum"`
	Count int64    `json:"count"`
	Avg   *float64 `json:"avg"`
	Max   *int64   `json:"max"`
}

// BreedAverage is the mean per-row count attributed to one breed.
type BreedAverage struct {
	BreedID   string  `json:"breedId"`
	BreedName string  `json:"breedName"`
	Average   float64 `json:"average"`
}

// MonthTotal is a production total keyed by a "MM/YYYY" label.
type MonthTotal struct {
	Label string `json:"label"`
	Total int64  `json:"total"`
}

// CategoryTotal is an expense total for one category.
type CategoryTotal struct {
	Category ExpenseCategory `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// MonthCategoryTotal is an expense total for one category within one month.
type MonthCategoryTotal struct {
	Label    string          `json:"label"`
	Category ExpenseCategory `json:"category"`
	Total    decimal.Decimal `json:"total"`
}
