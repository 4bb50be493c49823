package sheets

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

func newTestRepository(t *testing.T, handler http.HandlerFunc) *GoogleSheetRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("failed to build sheets service: %v", err)
	}
	return &GoogleSheetRepository{service: service, spreadsheetID: "sheet-1", maxElapsed: 5 * time.Second, logger: zap.NewNop()}
}

func TestReadRangeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"range":"Summaries!A1:J1","values":[["2024-04-01","f1","03/2024"]]}`)
	})

	rows, err := repo.ReadRange(context.Background(), "Summaries!A:J")
	if err != nil {
		t.Fatalf("ReadRange returned error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
	if len(rows) != 1 || rows[0][2] != "03/2024" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestReadRangeDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	if _, err := repo.ReadRange(context.Background(), "Nope!A:J"); err == nil {
		t.Fatal("expected an error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestEmptyRangeIsRejected(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if err := repo.WriteRow(context.Background(), "", []interface{}{"x"}); err == nil {
		t.Fatal("expected an error for an empty range")
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{&googleapi.Error{Code: http.StatusBadGateway}, true},
		{&googleapi.Error{Code: http.StatusForbidden}, false},
		{fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusInternalServerError}), true},
		{fmt.Errorf("dial tcp: refused"), false},
	}
	for _, tt := range tests {
		if got := retryable(tt.err); got != tt.want {
			t.Fatalf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
