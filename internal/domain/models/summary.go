package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySummary is the denormalized view rendered into the shareable image.
type MonthlySummary struct {
	FlockID        string         `json:"flockId"`
	FlockName      string         `json:"flockName"`
	FlockImage     string         `json:"flockImage,omitempty"`
	Month          string         `json:"month"`
	Year           string         `json:"year"`
	MonthLabel     string         `json:"monthLabel"`
	YearLabel      string         `json:"yearLabel"`
	Expenses       ExpenseSummary `json:"expenses"`
	Logs           LogSummary     `json:"logs"`
	TargetDailyAvg float64        `json:"targetDailyAvg"`
	TopBreed       *BreedAverage  `json:"topBreed,omitempty"`
	GeneratedAt    time.Time      `json:"generatedAt"`
}

// ExpenseSummary holds the month's expense totals.
type ExpenseSummary struct {
	Total      decimal.Decimal `json:"total"`
	Categories []CategoryTotal `json:"categories"`
}

// LogSummary holds the month's egg statistics. CalcAvg divides the sum by the
// number of days in the month rather than by the number of entries.
type LogSummary struct {
	LogStats
	CalcAvg     float64 `json:"calcAvg"`
	DaysInMonth int     `json:"daysInMonth"`
}
