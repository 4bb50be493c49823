package models

import "gorm.io/gorm"

// Flock is a user-owned collection of birds tracked as one unit.
type Flock struct {
	Base
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	ImageURL    string         `json:"imageUrl"`
	Type        string         `json:"type"`
	UserID      string         `gorm:"size:36;not null;index" json:"userId"`
	Breeds      []Breed        `gorm:"foreignKey:FlockID" json:"breeds,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

// Breed is a sub-population of a flock with its own expected production rate.
type Breed struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	// AverageProduction is eggs per bird per week.
	AverageProduction float64        `gorm:"not null;default:0" json:"averageProduction"`
	Count             int            `gorm:"not null;default:0" json:"count"`
	FlockID           string         `gorm:"size:36;not null;index" json:"flockId"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

// TargetDailyAverage is the expected number of eggs per day across breeds:
// sum(averageProduction * count / 7).
func TargetDailyAverage(breeds []Breed) float64 {
	var total float64
	for _, b := range breeds {
		total += b.AverageProduction * float64(b.Count) / 7
	}
	return total
}
