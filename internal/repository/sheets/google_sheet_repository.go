package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/flocktrack/internal/config"
)

// Repository is the slice of the Sheets API the ledger needs.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository talks to one spreadsheet through the Sheets API.
// Quota and server errors are retried with exponential backoff.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	maxElapsed    time.Duration
	logger        *zap.Logger
}

// NewGoogleSheetRepository authenticates with the service account file of
// cfg and binds the repository to cfg.SpreadsheetID.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		maxElapsed:    time.Minute,
		logger:        logger,
	}, nil
}

// WriteRow appends values as a new row after the table found in sheetRange.
// Values are written raw so identifiers and "MM/YYYY" periods are not
// reinterpreted as numbers or dates.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return errors.New("sheet range must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}
	err := r.retry(ctx, "append", func() error {
		_, err := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange returns the formatted cell values of sheetRange.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, errors.New("sheet range must not be empty")
	}

	var resp *sheetsapi.ValueRange
	err := r.retry(ctx, "read", func() error {
		var err error
		resp, err = r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}
	return resp.Values, nil
}

func (r *GoogleSheetRepository) retry(ctx context.Context, op string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = r.maxElapsed

	return backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		r.logger.Warn("sheets call failed, retrying", zap.String("op", op), zap.Duration("wait", wait), zap.Error(err))
	})
}

// retryable reports whether the API asked us to slow down or failed on its
// side.
func retryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}
