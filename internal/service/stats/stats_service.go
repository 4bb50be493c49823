// Package stats composes date buckets and aggregation queries into the views
// shown on the dashboard and in the monthly summary.
package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/flocktrack/internal/daterange"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// Queries is the read side of the store used by the composed views.
type Queries interface {
	GetFlock(ctx context.Context, id string) (*models.Flock, error)
	EggLogPoints(ctx context.Context, flockID string, r daterange.Range, filter *models.BreedFilter) ([]models.EggLogPoint, error)
	EggLogStats(ctx context.Context, flockID string, r daterange.Range, filter *models.BreedFilter) (models.LogStats, error)
	AverageEggCount(ctx context.Context, flockID string, r daterange.Range, filter *models.BreedFilter) (*float64, error)
	BreedAverages(ctx context.Context, flockID string, r daterange.Range) ([]models.BreedAverage, error)
	MonthlyEggTotals(ctx context.Context, flockID string, r daterange.Range) ([]models.MonthTotal, error)
	ExpenseTotal(ctx context.Context, flockID string, r daterange.Range) (decimal.Decimal, error)
	ExpenseTotalsByCategory(ctx context.Context, flockID string, r daterange.Range) ([]models.CategoryTotal, error)
	MonthlyExpenseTotals(ctx context.Context, flockID string, r daterange.Range) ([]models.MonthCategoryTotal, error)
}

// WeekAverage is the mean per-row count of one week.
type WeekAverage struct {
	daterange.Range
	Average *float64 `json:"average"`
}

// Trend is the rolling view: raw rows for the window plus week-over-week
// averages around today.
type Trend struct {
	Window   daterange.Range      `json:"window"`
	Points   []models.EggLogPoint `json:"points"`
	Stats    models.LogStats      `json:"stats"`
	ThisWeek WeekAverage          `json:"thisWeek"`
	LastWeek WeekAverage          `json:"lastWeek"`
}

// MonthBucket pairs one month's production with its expenses.
type MonthBucket struct {
	Label      string                 `json:"label"`
	Range      daterange.Range        `json:"range"`
	Production int64                  `json:"production"`
	Expenses   decimal.Decimal        `json:"expenses"`
	Categories []models.CategoryTotal `json:"categories"`
}

// ProductionTrend is the expense/production view over trailing months,
// oldest month first. Months without data are present with zero totals.
type ProductionTrend struct {
	Window daterange.Range `json:"window"`
	Months []MonthBucket   `json:"months"`
}

// Service composes stats views.
type Service struct {
	queries Queries
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewService wires a new stats service. Week and month edges are computed in
// loc; a nil loc means UTC.
func NewService(queries Queries, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{queries: queries, loc: loc, now: time.Now, logger: logger}
}

// WithClock replaces the source of "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Today is the current instant in the service location.
func (s *Service) Today() time.Time {
	return s.now().In(s.loc)
}

// Trend returns raw rows over window and this-week / last-week averages, all
// restricted by filter.
func (s *Service) Trend(ctx context.Context, flockID string, filter *models.BreedFilter, window daterange.Range) (*Trend, error) {
	today := s.Today()
	out := &Trend{
		Window:   window,
		ThisWeek: WeekAverage{Range: daterange.ThisWeek(today)},
		LastWeek: WeekAverage{Range: daterange.LastWeek(today)},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		points, err := s.queries.EggLogPoints(gctx, flockID, window, filter)
		out.Points = points
		return err
	})
	g.Go(func() error {
		stats, err := s.queries.EggLogStats(gctx, flockID, window, filter)
		out.Stats = stats
		return err
	})
	g.Go(func() error {
		avg, err := s.queries.AverageEggCount(gctx, flockID, out.ThisWeek.Range, filter)
		out.ThisWeek.Average = avg
		return err
	})
	g.Go(func() error {
		avg, err := s.queries.AverageEggCount(gctx, flockID, out.LastWeek.Range, filter)
		out.LastWeek.Average = avg
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("trend for flock %s: %w", flockID, err)
	}

	return out, nil
}

// BreedLeaderboard returns per-breed averages over window, best first.
func (s *Service) BreedLeaderboard(ctx context.Context, flockID string, window daterange.Range) ([]models.BreedAverage, error) {
	return s.queries.BreedAverages(ctx, flockID, window)
}

// ExpenseProductionTrend returns months trailing months ending with the
// current one, each with its production and expense totals.
func (s *Service) ExpenseProductionTrend(ctx context.Context, flockID string, months int) (*ProductionTrend, error) {
	buckets := daterange.TrailingMonths(s.Today(), months)
	window := daterange.Range{Start: buckets[0].Start, End: buckets[len(buckets)-1].End}

	var (
		production []models.MonthTotal
		expenses   []models.MonthCategoryTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		production, err = s.queries.MonthlyEggTotals(gctx, flockID, window)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.queries.MonthlyExpenseTotals(gctx, flockID, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("production trend for flock %s: %w", flockID, err)
	}

	byLabel := make(map[string]*MonthBucket, len(buckets))
	out := &ProductionTrend{Window: window, Months: make([]MonthBucket, len(buckets))}
	for i, m := range buckets {
		out.Months[i] = MonthBucket{
			Label:      m.Label(),
			Range:      m.Range,
			Expenses:   decimal.Zero,
			Categories: []models.CategoryTotal{},
		}
		byLabel[m.Label()] = &out.Months[i]
	}

	for _, p := range production {
		if b, ok := byLabel[p.Label]; ok {
			b.Production = p.Total
		}
	}
	for _, e := range expenses {
		if b, ok := byLabel[e.Label]; ok {
			b.Expenses = b.Expenses.Add(e.Total)
			b.Categories = append(b.Categories, models.CategoryTotal{Category: e.Category, Total: e.Total})
		}
	}

	return out, nil
}

// MonthlySummary composes the denormalized summary of one calendar month.
// month is two digits and year four. It returns nil, nil when the flock does
// not exist, meaning there is nothing to render.
func (s *Service) MonthlySummary(ctx context.Context, flockID, month, year string) (*models.MonthlySummary, error) {
	m, y, err := daterange.ParseMonthYear(month, year)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	flock, err := s.queries.GetFlock(ctx, flockID)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Debug("no flock to summarize", zap.String("flock_id", flockID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	bucket := daterange.MonthOf(y, m, s.loc)

	var (
		total      decimal.Decimal
		categories []models.CategoryTotal
		logStats   models.LogStats
		breeds     []models.BreedAverage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.queries.ExpenseTotal(gctx, flockID, bucket.Range)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.queries.ExpenseTotalsByCategory(gctx, flockID, bucket.Range)
		return err
	})
	g.Go(func() error {
		var err error
		logStats, err = s.queries.EggLogStats(gctx, flockID, bucket.Range, nil)
		return err
	})
	g.Go(func() error {
		var err error
		breeds, err = s.queries.BreedAverages(gctx, flockID, bucket.Range)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("monthly summary for flock %s: %w", flockID, err)
	}

	days := bucket.Days()
	summary := &models.MonthlySummary{
		FlockID:    flock.ID,
		FlockName:  flock.Name,
		FlockImage: flock.ImageURL,
		Month:      month,
		Year:       year,
		MonthLabel: m.String(),
		YearLabel:  strconv.Itoa(y),
		Expenses: models.ExpenseSummary{
			Total:      total,
			Categories: categories,
		},
		Logs: models.LogSummary{
			LogStats:    logStats,
			CalcAvg:     round2(float64(logStats.Sum) / float64(days)),
			DaysInMonth: days,
		},
		TargetDailyAvg: round2(models.TargetDailyAverage(flock.Breeds)),
		GeneratedAt:    s.now().UTC(),
	}
	if len(breeds) > 0 {
		top := breeds[0]
		summary.TopBreed = &top
	}

	return summary, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
