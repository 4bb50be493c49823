package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mamadbah2/flocktrack/internal/config"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/internal/repository/postgres"
	"github.com/mamadbah2/flocktrack/internal/server/handlers"
	"github.com/mamadbah2/flocktrack/internal/server/middleware"
	"github.com/mamadbah2/flocktrack/internal/service/flocks"
	"github.com/mamadbah2/flocktrack/internal/service/notifications"
	"github.com/mamadbah2/flocktrack/internal/service/stats"
	"github.com/mamadbah2/flocktrack/internal/service/summary"
	"github.com/mamadbah2/flocktrack/internal/service/tasks"
	"github.com/mamadbah2/flocktrack/internal/service/users"
	"github.com/mamadbah2/flocktrack/internal/testdb"
	"github.com/mamadbah2/flocktrack/internal/txn"
	"github.com/mamadbah2/flocktrack/pkg/clients/renderer"
)

const secret = "router-test-secret"

var today = time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC)

type memoryImages struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryImages) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memoryImages) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryImages) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryImages) URL(key string) string {
	return "http://flocks.test/" + key
}

type pngRenderer struct{ calls int }

func (r *pngRenderer) Render(context.Context, renderer.RenderRequest) ([]byte, error) {
	r.calls++
	return []byte("\x89PNG"), nil
}

type harness struct {
	t        *testing.T
	engine   http.Handler
	renderer *pngRenderer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.Open(t)
	store := postgres.NewStore(db)
	exec := txn.NewExecutor(db, nil, txn.WithBackoff(time.Millisecond, 2*time.Millisecond))
	clock := func() time.Time { return today }

	userSvc := users.NewService(store, exec, 2, nil)
	flockSvc := flocks.NewService(store, exec, 2, nil)
	taskSvc := tasks.NewService(store, exec, 2, nil).WithClock(clock)
	notificationSvc := notifications.NewService(store, exec, 2, nil).WithClock(clock)
	statsSvc := stats.NewService(store, time.UTC, nil).WithClock(clock)

	images := &memoryImages{objects: map[string][]byte{}}
	rend := &pngRenderer{}
	summarySvc := summary.NewService(statsSvc, rend, images, "http://flocks.test", nil)

	engine := New(Routes{
		Users:        handlers.NewUserHandler(userSvc, nil),
		Flocks:       handlers.NewFlockHandler(flockSvc, statsSvc.Today, nil),
		Tasks:        handlers.NewTaskHandler(taskSvc, notificationSvc, nil),
		Stats:        handlers.NewStatsHandler(statsSvc, summarySvc, nil),
		SummaryPages: handlers.NewSummaryPageHandler(statsSvc, images, nil),
		Authenticate: middleware.Authenticate(config.AuthConfig{JWTSecret: secret}, userSvc, nil),
		RequireFlock: middleware.RequireFlock(flockSvc, nil),
	}, nil)

	return &harness{t: t, engine: engine, renderer: rend}
}

func (h *harness) token(subject string) string {
	h.t.Helper()
	signed, err := middleware.SignToken(secret, middleware.Claims{
		Name:             strings.ToUpper(subject),
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	if err != nil {
		h.t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func (h *harness) do(method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func (h *harness) expect(rec *httptest.ResponseRecorder, status int, out interface{}) {
	h.t.Helper()
	if rec.Code != status {
		h.t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			h.t.Fatalf("failed to decode response %s: %v", rec.Body.String(), err)
		}
	}
}

func TestHealthzIsPublic(t *testing.T) {
	h := newHarness(t)
	h.expect(h.do(http.MethodGet, "/healthz", "", nil), http.StatusOK, nil)
	h.expect(h.do(http.MethodGet, "/api/me", "", nil), http.StatusUnauthorized, nil)
}

func TestFlockWorkflow(t *testing.T) {
	h := newHarness(t)
	alice := h.token("alice")

	var me models.User
	h.expect(h.do(http.MethodGet, "/api/me", alice, nil), http.StatusOK, &me)
	if me.ExternalID != "alice" || me.Name != "ALICE" {
		t.Fatalf("unexpected user %+v", me)
	}

	var flock models.Flock
	h.expect(h.do(http.MethodPost, "/api/flocks", alice, body{"name": "Backyard"}), http.StatusCreated, &flock)
	base := "/api/flocks/" + flock.ID

	var breed models.Breed
	h.expect(h.do(http.MethodPost, base+"/breeds", alice, body{"name": "Sussex", "averageProduction": 5, "count": 7}), http.StatusCreated, &breed)

	h.expect(h.do(http.MethodPost, base+"/logs", alice, body{"date": "2024-03-01", "count": 10, "breedId": breed.ID}), http.StatusCreated, nil)
	h.expect(h.do(http.MethodPost, base+"/logs", alice, body{"date": "2024-03-02", "count": 4}), http.StatusCreated, nil)
	h.expect(h.do(http.MethodPost, base+"/logs", alice, body{"date": "2024-03-03", "count": -1}), http.StatusBadRequest, nil)
	h.expect(h.do(http.MethodPost, base+"/expenses", alice, body{"date": "2024-03-02", "amount": "12.5", "category": "feed"}), http.StatusCreated, nil)
	h.expect(h.do(http.MethodPost, base+"/expenses", alice, body{"date": "2024-03-02", "amount": "1", "category": "rockets"}), http.StatusBadRequest, nil)

	var logs []models.EggLog
	h.expect(h.do(http.MethodGet, base+"/logs?from=2024-03-01&to=2024-03-31", alice, nil), http.StatusOK, &logs)
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}

	var trend stats.Trend
	h.expect(h.do(http.MethodGet, base+"/stats/trend?from=2024-03-01&to=2024-03-31", alice, nil), http.StatusOK, &trend)
	if trend.Stats.Sum != 14 || trend.Stats.Count != 2 {
		t.Fatalf("unexpected unfiltered stats %+v", trend.Stats)
	}
	h.expect(h.do(http.MethodGet, base+"/stats/trend?from=2024-03-01&to=2024-03-31&breedIds="+breed.ID, alice, nil), http.StatusOK, &trend)
	if trend.Stats.Sum != 10 {
		t.Fatalf("expected the breed filter to keep 10 eggs, got %+v", trend.Stats)
	}
	h.expect(h.do(http.MethodGet, base+"/stats/trend?from=2024-03-01&to=2024-03-31&breedIds=", alice, nil), http.StatusOK, &trend)
	if trend.Stats.Sum != 0 || trend.Stats.Count != 0 || trend.Stats.Avg != nil {
		t.Fatalf("expected the empty breed filter to match nothing, got %+v", trend.Stats)
	}
	h.expect(h.do(http.MethodGet, base+"/stats/trend?from=yesterday", alice, nil), http.StatusBadRequest, nil)

	var monthly stats.ProductionTrend
	h.expect(h.do(http.MethodGet, base+"/stats/monthly?months=3", alice, nil), http.StatusOK, &monthly)
	if len(monthly.Months) != 3 || monthly.Months[2].Label != "03/2024" || monthly.Months[2].Production != 14 {
		t.Fatalf("unexpected monthly trend %+v", monthly.Months)
	}
	h.expect(h.do(http.MethodGet, base+"/stats/monthly?months=zero", alice, nil), http.StatusBadRequest, nil)

	var s models.MonthlySummary
	h.expect(h.do(http.MethodGet, base+"/stats/summary?month=03&year=2024", alice, nil), http.StatusOK, &s)
	if s.Logs.Sum != 14 || s.Logs.DaysInMonth != 31 || s.TargetDailyAvg != 5 {
		t.Fatalf("unexpected summary %+v", s)
	}
	h.expect(h.do(http.MethodGet, base+"/stats/summary?month=3&year=2024", alice, nil), http.StatusBadRequest, nil)

	var detail struct {
		models.Flock
		TargetDailyAvg float64 `json:"targetDailyAvg"`
	}
	h.expect(h.do(http.MethodGet, base, alice, nil), http.StatusOK, &detail)
	if detail.TargetDailyAvg != 5 || len(detail.Breeds) != 1 {
		t.Fatalf("unexpected flock detail %+v", detail)
	}
}

func TestFlocksAreScopedToTheirOwner(t *testing.T) {
	h := newHarness(t)
	alice, bob := h.token("alice"), h.token("bob")

	var flock models.Flock
	h.expect(h.do(http.MethodPost, "/api/flocks", alice, body{"name": "Backyard"}), http.StatusCreated, &flock)

	h.expect(h.do(http.MethodGet, "/api/flocks/"+flock.ID, bob, nil), http.StatusForbidden, nil)
	h.expect(h.do(http.MethodGet, "/api/flocks/"+flock.ID+"/logs", bob, nil), http.StatusForbidden, nil)
	h.expect(h.do(http.MethodPut, "/api/me/default-flock", bob, body{"flockId": flock.ID}), http.StatusForbidden, nil)
	h.expect(h.do(http.MethodGet, "/api/flocks/missing", alice, nil), http.StatusNotFound, nil)

	var list []models.Flock
	h.expect(h.do(http.MethodGet, "/api/flocks", bob, nil), http.StatusOK, &list)
	if len(list) != 0 {
		t.Fatalf("bob must not see alice's flocks, got %d", len(list))
	}

	h.expect(h.do(http.MethodDelete, "/api/flocks/"+flock.ID, alice, nil), http.StatusOK, nil)
	h.expect(h.do(http.MethodGet, "/api/flocks/"+flock.ID, alice, nil), http.StatusNotFound, nil)
}

func TestTaskCompletion(t *testing.T) {
	h := newHarness(t)
	alice := h.token("alice")

	var flock models.Flock
	h.expect(h.do(http.MethodPost, "/api/flocks", alice, body{"name": "Backyard"}), http.StatusCreated, &flock)
	base := "/api/flocks/" + flock.ID + "/tasks"

	var task models.Task
	h.expect(h.do(http.MethodPost, base, alice, body{"title": "Clean coop", "dueDate": "2024-01-01", "recurrence": "weekly"}), http.StatusCreated, &task)

	var completion tasks.Completion
	h.expect(h.do(http.MethodPost, base+"/"+task.ID+"/complete", alice, nil), http.StatusOK, &completion)
	if completion.Next == nil || completion.Next.DueDate == nil ||
		!completion.Next.DueDate.Equal(time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected successor %+v", completion.Next)
	}
	h.expect(h.do(http.MethodPost, base+"/"+task.ID+"/complete", alice, nil), http.StatusConflict, nil)

	var open []models.Task
	h.expect(h.do(http.MethodGet, base, alice, nil), http.StatusOK, &open)
	if len(open) != 1 || open[0].ID != completion.Next.ID {
		t.Fatalf("expected only the successor to be open, got %+v", open)
	}
}

func TestSummaryRenderAndImage(t *testing.T) {
	h := newHarness(t)
	alice := h.token("alice")

	var flock models.Flock
	h.expect(h.do(http.MethodPost, "/api/flocks", alice, body{"name": "Backyard"}), http.StatusCreated, &flock)
	render := "/api/flocks/" + flock.ID + "/summary/render"

	var first, second summary.Result
	h.expect(h.do(http.MethodPost, render, alice, body{"month": "03", "year": "2024"}), http.StatusOK, &first)
	h.expect(h.do(http.MethodPost, render, alice, body{"month": "03", "year": "2024"}), http.StatusOK, &second)
	if first.Key != summary.ImageKey(flock.ID, "03", "2024") || second.Key != first.Key || h.renderer.calls != 1 {
		t.Fatalf("expected one render under a stable key, got %+v, %+v after %d renders", first, second, h.renderer.calls)
	}
	h.expect(h.do(http.MethodPost, render, alice, body{"month": "13", "year": "2024"}), http.StatusBadRequest, nil)

	rec := h.do(http.MethodGet, "/summary-images/"+flock.ID+"032024.png", "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" || rec.Body.String() != "\x89PNG" {
		t.Fatalf("unexpected image response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	h.expect(h.do(http.MethodGet, "/summary-images/unknown.png", "", nil), http.StatusNotFound, nil)

	page := h.do(http.MethodGet, "/summary/"+flock.ID+"/03/2024", "", nil)
	if page.Code != http.StatusOK || !strings.Contains(page.Body.String(), "Backyard") || !strings.Contains(page.Body.String(), "March 2024") {
		t.Fatalf("unexpected summary page %d: %s", page.Code, page.Body.String())
	}
	h.expect(h.do(http.MethodGet, "/summary/missing/03/2024", "", nil), http.StatusNotFound, nil)
}

func TestNotifications(t *testing.T) {
	h := newHarness(t)
	alice := h.token("alice")

	var list []models.Notification
	h.expect(h.do(http.MethodGet, "/api/notifications?unread=true", alice, nil), http.StatusOK, &list)
	if len(list) != 0 {
		t.Fatalf("expected no notifications, got %d", len(list))
	}
	h.expect(h.do(http.MethodPost, "/api/notifications/missing/read", alice, nil), http.StatusNotFound, nil)
}

type body map[string]interface{}
