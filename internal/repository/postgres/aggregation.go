package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mamadbah2/flocktrack/internal/daterange"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// eggLogsIn scopes a query to one flock's egg logs inside r.
func (s *Store) eggLogsIn(ctx context.Context, flockID string, r daterange.Range) *gorm.DB {
	from, until := dayBounds(r)
	return s.conn(ctx).
		Table("egg_logs").
		Where("egg_logs.flock_id = ? AND egg_logs.date >= ? AND egg_logs.date < ?", flockID, from, until)
}

// applyBreedFilter: nil keeps every row, an empty filter keeps none.
func applyBreedFilter(q *gorm.DB, filter *models.BreedFilter) *gorm.DB {
	if filter == nil {
		return q
	}
	if len(filter.IDs) == 0 {
		return q.Where("1 = 0")
	}
	return q.Where("egg_logs.breed_id IN ?", filter.IDs)
}

// monthLabel renders column as "MM/YYYY" in the current dialect.
func monthLabel(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("strftime('%%m/%%Y', %s)", column)
	}
	return fmt.Sprintf("to_char(%s, 'MM/YYYY')", column)
}

// EggLogPoints returns raw (date, count) rows in date order for charting.
func (s *Store) EggLogPoints(ctx context.Context, flockID string, r daterange.Range, filter *models.BreedFilter) ([]models.EggLogPoint, error) {
	var points []models.EggLogPoint
	err := applyBreedFilter(s.eggLogsIn(ctx, flockID, r), filter).
		Select("egg_logs.date AS date, egg_logs.count AS count, egg_logs.breed_id AS breed_id").
		Order("egg_logs.date ASC").Order("egg_logs.created_at ASC").
		Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("egg log points: %w", err)
	}
	if points == nil {
		points = []models.EggLogPoint{}
	}
	return points, nil
}

type logStatsRow struct {
	Total   int64
	Entries int64
	Average *float64
	Maximum *int64
}

// EggLogStats returns sum, count, average and max of counts inside r. With no
// matching rows the sum and count are zero and Avg/Max are nil.
func (s *Store) EggLogStats(ctx context.Context, flockID string, r daterange.Range, filter *models.BreedFilter) (models.LogStats, error) {
	var row logStatsRow
	err := applyBreedFilter(s.eggLogsIn(ctx, flockID, r), filter).
		Select("COALESCE(SUM(egg_logs.count), 0) AS total, COUNT(*) AS entries, AVG(egg_logs.count) AS average, MAX(egg_logs.count) AS maximum").
		Scan(&row).Error
	if err != nil {
		return models.LogStats{}, fmt.Errorf("egg log stats: %w", err)
	}

	return models.LogStats{
		Sum:   row.Total,
		Count: row.Entries,
		Avg:   row.Average,
		Max:   row.Maximum,
	}, nil
}

// AverageEggCount is the mean count per row inside r (duplicate dates count
// as separate rows). Nil means no data.
func (s *Store) AverageEggCount(ctx context.Context, flockID string, r daterange.Range, filter *models.BreedFilter) (*float64, error) {
	stats, err := s.EggLogStats(ctx, flockID, r, filter)
	if err != nil {
		return nil, err
	}
	return stats.Avg, nil
}

// BreedAverages returns the mean count per attributed breed inside r, highest
// first, so the top breed is the head of the slice.
func (s *Store) BreedAverages(ctx context.Context, flockID string, r daterange.Range) ([]models.BreedAverage, error) {
	var rows []models.BreedAverage
	err := s.eggLogsIn(ctx, flockID, r).
		Select("egg_logs.breed_id AS breed_id, COALESCE(breeds.name, '') AS breed_name, AVG(egg_logs.count) AS average").
		Joins("LEFT JOIN breeds ON breeds.id = egg_logs.breed_id").
		Where("egg_logs.breed_id IS NOT NULL").
		Group("egg_logs.breed_id, breeds.name").
		Order("average DESC").Order("breed_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("breed averages: %w", err)
	}
	if rows == nil {
		rows = []models.BreedAverage{}
	}
	return rows, nil
}

// MonthlyEggTotals returns total counts per "MM/YYYY" label inside r.
func (s *Store) MonthlyEggTotals(ctx context.Context, flockID string, r daterange.Range) ([]models.MonthTotal, error) {
	q := s.eggLogsIn(ctx, flockID, r)
	label := monthLabel(q, "egg_logs.date")

	var rows []models.MonthTotal
	err := q.
		Select(label + " AS label, COALESCE(SUM(egg_logs.count), 0) AS total").
		Group(label).
		Order("MIN(egg_logs.date) ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("monthly egg totals: %w", err)
	}
	if rows == nil {
		rows = []models.MonthTotal{}
	}
	return rows, nil
}
