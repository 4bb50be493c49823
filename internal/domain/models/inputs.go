package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FlockInput is the writable surface of a Flock.
type FlockInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Type        string `json:"type"`
}

// Validate rejects inputs that cannot be persisted.
func (in FlockInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: flock name is required", ErrValidation)
	}
	return nil
}

// BreedInput is the writable surface of a Breed.
type BreedInput struct {
	Name              string  `json:"name" binding:"required"`
	Description       string  `json:"description"`
	ImageURL          string  `json:"imageUrl"`
	AverageProduction float64 `json:"averageProduction" binding:"min=0"`
	Count             int     `json:"count" binding:"min=0"`
}

// Validate rejects inputs that cannot be persisted.
func (in BreedInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: breed name is required", ErrValidation)
	case in.AverageProduction < 0:
		return fmt.Errorf("%w: average production must not be negative", ErrValidation)
	case in.Count < 0:
		return fmt.Errorf("%w: breed count must not be negative", ErrValidation)
	}
	return nil
}

// EggLogInput is the writable surface of an EggLog.
type EggLogInput struct {
	Date    string  `json:"date" binding:"required"`
	Count   *int    `json:"count" binding:"required,min=0"`
	Notes   string  `json:"notes"`
	BreedID *string `json:"breedId"`
}

// Validate rejects inputs that cannot be persisted.
func (in EggLogInput) Validate() error {
	if _, err := parseRequiredDate(in.Date); err != nil {
		return err
	}
	if in.Count == nil {
		return fmt.Errorf("%w: count is required", ErrValidation)
	}
	if *in.Count < 0 {
		return fmt.Errorf("%w: count must not be negative", ErrValidation)
	}
	if in.BreedID != nil && strings.TrimSpace(*in.BreedID) == "" {
		return fmt.Errorf("%w: breed id must not be blank", ErrValidation)
	}
	return nil
}

// ToEggLog converts a validated input into an entity for flockID.
func (in EggLogInput) ToEggLog(flockID string) EggLog {
	date, _ := ParseDate(in.Date)
	return EggLog{
		Date:    date,
		Count:   *in.Count,
		Notes:   strings.TrimSpace(in.Notes),
		BreedID: in.BreedID,
		FlockID: flockID,
	}
}

// ExpenseInput is the writable surface of an Expense.
type ExpenseInput struct {
	Date     string          `json:"date" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category" binding:"required"`
	Memo     string          `json:"memo"`
}

// Validate rejects inputs that cannot be persisted.
func (in ExpenseInput) Validate() error {
	if _, err := parseRequiredDate(in.Date); err != nil {
		return err
	}
	if in.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	if !ExpenseCategory(strings.ToLower(in.Category)).Valid() {
		return fmt.Errorf("%w: unknown expense category %q", ErrValidation, in.Category)
	}
	return nil
}

// ToExpense converts a validated input into an entity for flockID.
func (in ExpenseInput) ToExpense(flockID string) Expense {
	date, _ := ParseDate(in.Date)
	return Expense{
		Date:     date,
		Amount:   in.Amount,
		Category: ExpenseCategory(strings.ToLower(in.Category)),
		Memo:     strings.TrimSpace(in.Memo),
		FlockID:  flockID,
	}
}

// TaskInput is the writable surface of a Task.
type TaskInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Recurrence  string `json:"recurrence"`
}

// Validate rejects inputs that cannot be persisted.
func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: task title is required", ErrValidation)
	}
	if in.DueDate != "" {
		if _, err := parseRequiredDate(in.DueDate); err != nil {
			return err
		}
	}
	if !in.recurrence().Valid() {
		return fmt.Errorf("%w: unknown recurrence %q", ErrValidation, in.Recurrence)
	}
	if in.recurrence() != RecurrenceNever && in.DueDate == "" {
		return fmt.Errorf("%w: recurring tasks need a due date", ErrValidation)
	}
	return nil
}

// DueDateValue returns the parsed due date, or nil when none was given.
func (in TaskInput) DueDateValue() *time.Time {
	if in.DueDate == "" {
		return nil
	}
	due, err := ParseDate(in.DueDate)
	if err != nil {
		return nil
	}
	return &due
}

// RecurrenceValue returns the normalized recurrence, defaulting to never.
func (in TaskInput) RecurrenceValue() Recurrence {
	return in.recurrence()
}

func (in TaskInput) recurrence() Recurrence {
	r := Recurrence(strings.ToLower(strings.TrimSpace(in.Recurrence)))
	if r == "" {
		return RecurrenceNever
	}
	return r
}

func parseRequiredDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", ErrValidation)
	}
	date, err := ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must use YYYY-MM-DD", ErrValidation, value)
	}
	return date, nil
}
