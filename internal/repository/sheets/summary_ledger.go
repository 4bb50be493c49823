package sheets

import (
	"context"
	"fmt"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// SummaryLedger appends one row per published monthly summary.
type SummaryLedger struct {
	repo       Repository
	sheetRange string
}

// NewSummaryLedger writes into sheetRange of repo.
func NewSummaryLedger(repo Repository, sheetRange string) *SummaryLedger {
	return &SummaryLedger{repo: repo, sheetRange: sheetRange}
}

// AppendSummaryRow exports the headline figures of summary.
func (l *SummaryLedger) AppendSummaryRow(ctx context.Context, summary *models.MonthlySummary, imageURL string) error {
	row := summaryRow(summary, imageURL)
	if err := l.repo.WriteRow(ctx, l.sheetRange, row); err != nil {
		return fmt.Errorf("export summary of flock %s: %w", summary.FlockID, err)
	}
	return nil
}

// HasSummary reports whether a row for the flock-month already exists.
func (l *SummaryLedger) HasSummary(ctx context.Context, flockID, month, year string) (bool, error) {
	rows, err := l.repo.ReadRange(ctx, l.sheetRange)
	if err != nil {
		return false, err
	}
	period := month + "/" + year
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		if fmt.Sprint(row[1]) == flockID && fmt.Sprint(row[2]) == period {
			return true, nil
		}
	}
	return false, nil
}

func summaryRow(s *models.MonthlySummary, imageURL string) []interface{} {
	topBreed := ""
	if s.TopBreed != nil {
		topBreed = s.TopBreed.BreedName
	}
	return []interface{}{
		s.GeneratedAt.Format(models.DateLayout),
		s.FlockID,
		s.Month + "/" + s.Year,
		s.FlockName,
		s.Logs.Sum,
		s.Logs.Count,
		s.Logs.CalcAvg,
		s.Expenses.Total.StringFixed(2),
		topBreed,
		imageURL,
	}
}
