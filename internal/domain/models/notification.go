package models

import "time"

// Notification is an in-app message addressed to a user. Rows are created by
// the monthly batch and only mutated by mark-as-read.
type Notification struct {
	Base
	Title   string     `gorm:"not null" json:"title"`
	Message string     `json:"message"`
	Read    bool       `gorm:"not null;default:false" json:"read"`
	ReadAt  *time.Time `json:"readAt,omitempty"`
	Link    string     `json:"link,omitempty"`
	Action  string     `json:"action,omitempty"`
	UserID  string     `gorm:"size:36;not null;index" json:"userId"`
}
