// Package summary renders shareable monthly summary images and publishes
// them in a monthly batch.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/cache"
	"github.com/mamadbah2/flocktrack/internal/daterange"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/pkg/clients/renderer"
)

var (
	// ErrRenderFailed is the generic failure reported when the rendering
	// service could not produce or store the image.
	ErrRenderFailed = errors.New("summary render failed")

	// ErrNothingToRender is returned when the flock does not exist.
	ErrNothingToRender = fmt.Errorf("nothing to render: %w", models.ErrNotFound)

	// ErrRenderInProgress is returned when another instance holds the render
	// lock for the same key.
	ErrRenderInProgress = fmt.Errorf("summary render in progress: %w", models.ErrConflict)
)

// Composer builds the monthly summary. A nil summary means the flock is gone.
type Composer interface {
	MonthlySummary(ctx context.Context, flockID, month, year string) (*models.MonthlySummary, error)
}

// ImageStore persists rendered images by key.
type ImageStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	URL(key string) string
}

// Archive keeps a copy of published summaries.
type Archive interface {
	SaveMonthlySummary(ctx context.Context, summary *models.MonthlySummary, imageKey string) error
}

// Ledger exports published summaries to a spreadsheet.
type Ledger interface {
	HasSummary(ctx context.Context, flockID, month, year string) (bool, error)
	AppendSummaryRow(ctx context.Context, summary *models.MonthlySummary, imageURL string) error
}

// Notifier stores in-app notifications. NotifyOnce creates n unless its
// user already has a notification with the same link.
type Notifier interface {
	NotifyOnce(ctx context.Context, n *models.Notification) (bool, error)
}

// FlockLister enumerates the live flocks for the batch.
type FlockLister interface {
	ListAllFlocks(ctx context.Context) ([]models.Flock, error)
}

// Request identifies one flock-month. Month is two digits, Year four.
type Request struct {
	FlockID string `json:"flockId"`
	Month   string `json:"month"`
	Year    string `json:"year"`
}

// Result locates the rendered image. Rendered is false when the image
// already existed.
type Result struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Rendered bool   `json:"rendered"`
}

// BatchReport counts the outcomes of a PublishMonthly run.
type BatchReport struct {
	Published int `json:"published"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Service triggers renders and publishes summaries.
type Service struct {
	composer  Composer
	renderer  renderer.Client
	images    ImageStore
	locker    cache.Locker
	archive   Archive
	ledger    Ledger
	notifier  Notifier
	flocks    FlockLister
	publicURL string
	logger    *zap.Logger
}

// Option attaches an optional collaborator.
type Option func(*Service)

// WithLocker de-duplicates concurrent renders of the same key.
func WithLocker(l cache.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithArchive stores published summaries.
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithLedger exports published summaries.
func WithLedger(l Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

// WithPublishing enables PublishMonthly.
func WithPublishing(flocks FlockLister, notifier Notifier) Option {
	return func(s *Service) {
		s.flocks = flocks
		s.notifier = notifier
	}
}

// NewService wires a new summary service. publicURL is where the summary
// page is reachable by the rendering service.
func NewService(composer Composer, client renderer.Client, images ImageStore, publicURL string, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		composer:  composer,
		renderer:  client,
		images:    images,
		locker:    cache.NoopLocker{},
		publicURL: strings.TrimSuffix(publicURL, "/"),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImagePrefix is the key prefix, and public path, of rendered summaries.
const ImagePrefix = "summary-images"

// ImageKey is the deterministic storage key of a flock-month image.
func ImageKey(flockID, month, year string) string {
	return fmt.Sprintf("%s/%s%s%s.png", ImagePrefix, flockID, month, year)
}

// PageURL is the address of the summary page the renderer screenshots.
func (s *Service) PageURL(req Request) string {
	return fmt.Sprintf("%s/summary/%s/%s/%s", s.publicURL, req.FlockID, req.Month, req.Year)
}

// Trigger renders the summary image of req unless it already exists. The
// same request always yields the same key, and an existing image counts as
// success without rendering again.
func (s *Service) Trigger(ctx context.Context, req Request) (*Result, error) {
	if _, _, err := daterange.ParseMonthYear(req.Month, req.Year); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if req.FlockID == "" {
		return nil, fmt.Errorf("%w: flock id is required", models.ErrValidation)
	}

	result, exists, err := s.lookup(ctx, req)
	if err != nil || exists {
		return result, err
	}

	summary, err := s.composer.MonthlySummary(ctx, req.FlockID, req.Month, req.Year)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, ErrNothingToRender
	}
	return s.render(ctx, req, result)
}

// lookup returns the result of req and whether its image is already stored.
func (s *Service) lookup(ctx context.Context, req Request) (*Result, bool, error) {
	key := ImageKey(req.FlockID, req.Month, req.Year)
	result := &Result{Key: key, URL: s.images.URL(key)}

	exists, err := s.images.Exists(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("check image %s: %w", key, err)
	}
	return result, exists, nil
}

// render produces and stores the image of result.Key under the render lock.
// The flock-month must already be known to have a summary.
func (s *Service) render(ctx context.Context, req Request, result *Result) (*Result, error) {
	key := result.Key

	unlock, ok, err := s.locker.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRenderInProgress
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release render lock", zap.String("key", key), zap.Error(err))
		}
	}()

	// Another holder may have finished between the first check and the lock.
	if exists, err := s.images.Exists(ctx, key); err == nil && exists {
		return result, nil
	}

	start := time.Now()
	image, err := s.renderer.Render(ctx, renderer.RenderRequest{URL: s.PageURL(req)})
	if err != nil {
		s.logger.Error("summary render failed", zap.String("key", key), zap.Error(err))
		return nil, ErrRenderFailed
	}
	if err := s.images.Put(ctx, key, image, "image/png"); err != nil {
		s.logger.Error("failed to store rendered summary", zap.String("key", key), zap.Error(err))
		return nil, ErrRenderFailed
	}

	s.logger.Info("summary rendered",
		zap.String("key", key),
		zap.Int("bytes", len(image)),
		zap.Duration("duration", time.Since(start)))
	result.Rendered = true
	return result, nil
}

// PublishMonthly renders, archives, exports and announces the summary of
// month/year for every live flock. A failing flock is logged and counted;
// the batch carries on with the next one. Every step is idempotent, so a
// rerun finishes whatever an earlier run left undone and a flock counts as
// published in the run that notified its owner.
func (s *Service) PublishMonthly(ctx context.Context, month time.Month, year int) (BatchReport, error) {
	var report BatchReport
	if s.flocks == nil || s.notifier == nil {
		return report, errors.New("publishing is not configured")
	}

	flocks, err := s.flocks.ListAllFlocks(ctx)
	if err != nil {
		return report, fmt.Errorf("list flocks: %w", err)
	}

	mm := fmt.Sprintf("%02d", int(month))
	yyyy := fmt.Sprintf("%04d", year)

	for _, flock := range flocks {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		published, err := s.publishOne(ctx, flock, mm, yyyy)
		switch {
		case err != nil:
			report.Failed++
			s.logger.Error("failed to publish monthly summary",
				zap.String("flock_id", flock.ID),
				zap.String("month", mm),
				zap.String("year", yyyy),
				zap.Error(err))
		case published:
			report.Published++
		default:
			report.Skipped++
		}
	}

	s.logger.Info("monthly summaries published",
		zap.String("month", mm),
		zap.String("year", yyyy),
		zap.Int("published", report.Published),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *Service) publishOne(ctx context.Context, flock models.Flock, month, year string) (bool, error) {
	summary, err := s.composer.MonthlySummary(ctx, flock.ID, month, year)
	if err != nil {
		return false, err
	}
	if summary == nil {
		return false, nil
	}

	req := Request{FlockID: flock.ID, Month: month, Year: year}
	result, exists, err := s.lookup(ctx, req)
	if err != nil {
		return false, err
	}
	if !exists {
		if result, err = s.render(ctx, req, result); err != nil {
			return false, err
		}
	}

	if s.archive != nil {
		if err := s.archive.SaveMonthlySummary(ctx, summary, result.Key); err != nil {
			return false, err
		}
	}

	if s.ledger != nil {
		exported, err := s.ledger.HasSummary(ctx, flock.ID, month, year)
		if err != nil {
			return false, err
		}
		if !exported {
			if err := s.ledger.AppendSummaryRow(ctx, summary, result.URL); err != nil {
				return false, err
			}
		}
	}

	notification := &models.Notification{
		Title:   fmt.Sprintf("%s %s summary is ready", summary.MonthLabel, summary.YearLabel),
		Message: fmt.Sprintf("The monthly summary of %s is ready to share.", flock.Name),
		Link:    result.URL,
		Action:  "View summary",
		UserID:  flock.UserID,
	}
	return s.notifier.NotifyOnce(ctx, notification)
}
