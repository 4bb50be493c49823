package models

import (
	"fmt"
	"time"
)

// Recurrence governs whether completing a task spawns a successor.
type Recurrence string

const (
	RecurrenceNever   Recurrence = "never"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// Valid reports whether r is a supported recurrence rule.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNever, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// Advance returns due moved forward by one recurrence interval. Month and
// year steps follow time.AddDate normalization (Jan 31 + 1 month = Mar 2/3).
func (r Recurrence) Advance(due time.Time) (time.Time, error) {
	switch r {
	case RecurrenceDaily:
		return due.AddDate(0, 0, 1), nil
	case RecurrenceWeekly:
		return due.AddDate(0, 0, 7), nil
	case RecurrenceMonthly:
		return due.AddDate(0, 1, 0), nil
	case RecurrenceYearly:
		return due.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("recurrence %q does not advance", r)
	}
}

// Task status values.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// Task is a to-do item attached to a flock.
type Task struct {
	Base
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `gorm:"type:date;index" json:"dueDate,omitempty"`
	Recurrence  Recurrence `gorm:"size:16;not null;default:never" json:"recurrence"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Status      string     `gorm:"size:16;not null;default:pending" json:"status"`
	FlockID     string     `gorm:"size:36;not null;index" json:"flockId"`
	UserID      string     `gorm:"size:36;not null;index" json:"userId"`
}
