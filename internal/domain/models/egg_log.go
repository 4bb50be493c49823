package models

import "time"

// EggLog is one dated record of eggs collected, optionally attributed to a
// breed. Several rows may exist for the same flock and date.
type EggLog struct {
	Base
	Date    time.Time `gorm:"type:date;not null;index:idx_egg_logs_flock_date,priority:2" json:"date"`
	Count   int       `gorm:"not null" json:"count"`
	Notes   string    `json:"notes,omitempty"`
	BreedID *string   `gorm:"size:36;index" json:"breedId,omitempty"`
	FlockID string    `gorm:"size:36;not null;index:idx_egg_logs_flock_date,priority:1" json:"flockId"`
}
