package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/config"
	"github.com/mamadbah2/flocktrack/internal/service/summary"
)

// Publisher runs the monthly summary batch.
type Publisher interface {
	PublishMonthly(ctx context.Context, month time.Month, year int) (summary.BatchReport, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	publisher Publisher
	schedule  string
	loc       *time.Location
	timeout   time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured
// timezone.
func NewScheduler(cfg config.ReportingConfig, publisher Publisher, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		publisher: publisher,
		schedule:  cfg.CronSchedule,
		loc:       loc,
		timeout:   30 * time.Minute,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// Start registers the monthly job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.loc.String()))

	if _, err := s.cron.AddFunc(s.schedule, s.publishPreviousMonth); err != nil {
		return fmt.Errorf("schedule monthly summaries: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) publishPreviousMonth() {
	month, year := PreviousMonth(s.now().In(s.loc))
	s.logger.Info("publishing monthly summaries", zap.Stringer("month", month), zap.Int("year", year))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.publisher.PublishMonthly(ctx, month, year)
	if err != nil {
		s.logger.Error("monthly summary batch failed", zap.Error(err))
		return
	}
	if report.Failed > 0 {
		s.logger.Warn("monthly summary batch finished with failures", zap.Int("failed", report.Failed))
	}
}

// PreviousMonth returns the calendar month before the one containing t.
func PreviousMonth(t time.Time) (time.Month, int) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	prev := first.AddDate(0, -1, 0)
	return prev.Month(), prev.Year()
}
