package flocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/flocktrack/internal/daterange"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/internal/repository/postgres"
	"github.com/mamadbah2/flocktrack/internal/testdb"
	"github.com/mamadbah2/flocktrack/internal/txn"
)

func setupService(t *testing.T) (*Service, *postgres.Store) {
	t.Helper()
	db := testdb.Open(t)
	store := postgres.NewStore(db)
	exec := txn.NewExecutor(db, nil, txn.WithBackoff(time.Millisecond, 2*time.Millisecond))
	return NewService(store, exec, 2, nil), store
}

func count(v int) *int { return &v }

func TestCreateFlockValidatesBeforeWriting(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	if _, err := svc.CreateFlock(ctx, "u1", models.FlockInput{Name: " "}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	flocks, _ := store.ListFlocks(ctx, "u1")
	if len(flocks) != 0 {
		t.Fatalf("invalid input must not be persisted, found %d flocks", len(flocks))
	}

	flock, err := svc.CreateFlock(ctx, "u1", models.FlockInput{Name: "Hens", Type: "layers"})
	if err != nil {
		t.Fatalf("CreateFlock returned error: %v", err)
	}
	if flock.ID == "" || flock.UserID != "u1" {
		t.Fatalf("unexpected flock %+v", flock)
	}
}

func TestAuthorize(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	flock, err := svc.CreateFlock(ctx, "owner", models.FlockInput{Name: "Mine"})
	if err != nil {
		t.Fatalf("CreateFlock returned error: %v", err)
	}

	if _, err := svc.Authorize(ctx, "owner", flock.ID); err != nil {
		t.Fatalf("owner should be authorized: %v", err)
	}
	if _, err := svc.Authorize(ctx, "intruder", flock.ID); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Authorize(ctx, "owner", "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateEggLogChecksReferences(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	a, _ := svc.CreateFlock(ctx, "u1", models.FlockInput{Name: "A"})
	b, _ := svc.CreateFlock(ctx, "u1", models.FlockInput{Name: "B"})
	foreign, err := svc.CreateBreed(ctx, b.ID, models.BreedInput{Name: "Silkie"})
	if err != nil {
		t.Fatalf("CreateBreed returned error: %v", err)
	}

	if _, err := svc.CreateEggLog(ctx, "missing", models.EggLogInput{Date: "2024-03-01", Count: count(3)}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found for unknown flock, got %v", err)
	}
	if _, err := svc.CreateEggLog(ctx, a.ID, models.EggLogInput{Date: "2024-03-01", Count: count(3), BreedID: &foreign.ID}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found for a breed of another flock, got %v", err)
	}

	log, err := svc.CreateEggLog(ctx, b.ID, models.EggLogInput{Date: "2024-03-01", Count: count(3), BreedID: &foreign.ID})
	if err != nil {
		t.Fatalf("CreateEggLog returned error: %v", err)
	}

	logs, err := svc.ListEggLogs(ctx, b.ID, daterange.Range{Start: log.Date, End: log.Date})
	if err != nil {
		t.Fatalf("ListEggLogs returned error: %v", err)
	}
	if len(logs) != 1 || logs[0].Count != 3 {
		t.Fatalf("unexpected logs %+v", logs)
	}

	if err := svc.DeleteEggLog(ctx, b.ID, log.ID); err != nil {
		t.Fatalf("DeleteEggLog returned error: %v", err)
	}
	if err := svc.DeleteEggLog(ctx, b.ID, log.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	flock, _ := svc.CreateFlock(ctx, "u1", models.FlockInput{Name: "Costs"})

	if _, err := svc.CreateExpense(ctx, flock.ID, models.ExpenseInput{Date: "2024-03-01", Amount: decimal.NewFromInt(5), Category: "fuel"}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	expense, err := svc.CreateExpense(ctx, flock.ID, models.ExpenseInput{Date: "2024-03-01", Amount: decimal.RequireFromString("18.90"), Category: "Feed"})
	if err != nil {
		t.Fatalf("CreateExpense returned error: %v", err)
	}
	if expense.Category != models.CategoryFeed {
		t.Fatalf("expected normalized category, got %s", expense.Category)
	}

	listed, err := svc.ListExpenses(ctx, flock.ID, daterange.MonthOf(2024, time.March, nil).Range)
	if err != nil {
		t.Fatalf("ListExpenses returned error: %v", err)
	}
	if len(listed) != 1 || !listed[0].Amount.Equal(decimal.RequireFromString("18.9")) {
		t.Fatalf("unexpected expenses %+v", listed)
	}

	if err := svc.DeleteExpense(ctx, flock.ID, expense.ID); err != nil {
		t.Fatalf("DeleteExpense returned error: %v", err)
	}
}

func TestDeleteFlockClearsDefault(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	user := &models.User{ExternalID: "ext-1"}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	flock, _ := svc.CreateFlock(ctx, user.ID, models.FlockInput{Name: "Default"})
	user.DefaultFlockID = &flock.ID
	if err := store.SaveUser(ctx, user); err != nil {
		t.Fatalf("SaveUser returned error: %v", err)
	}

	deleted, err := svc.DeleteFlock(ctx, flock.ID)
	if err != nil {
		t.Fatalf("DeleteFlock returned error: %v", err)
	}
	if deleted.ID != flock.ID {
		t.Fatalf("expected deleted flock back, got %+v", deleted)
	}

	reloaded, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if reloaded.DefaultFlockID != nil {
		t.Fatalf("default flock should be cleared, got %v", *reloaded.DefaultFlockID)
	}

	if _, err := svc.DeleteFlock(ctx, flock.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBreedUpdateAndDelete(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	flock, _ := svc.CreateFlock(ctx, "u1", models.FlockInput{Name: "Breeds"})

	breed, err := svc.CreateBreed(ctx, flock.ID, models.BreedInput{Name: "Leghorn", AverageProduction: 6, Count: 10})
	if err != nil {
		t.Fatalf("CreateBreed returned error: %v", err)
	}

	updated, err := svc.UpdateBreed(ctx, flock.ID, breed.ID, models.BreedInput{Name: "Leghorn", AverageProduction: 5, Count: 12})
	if err != nil {
		t.Fatalf("UpdateBreed returned error: %v", err)
	}
	if updated.Count != 12 || updated.AverageProduction != 5 {
		t.Fatalf("unexpected breed %+v", updated)
	}

	if _, err := svc.CreateBreed(ctx, "missing", models.BreedInput{Name: "Ghost"}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := svc.DeleteBreed(ctx, flock.ID, breed.ID); err != nil {
		t.Fatalf("DeleteBreed returned error: %v", err)
	}
	breeds, _ := svc.ListBreeds(ctx, flock.ID)
	if len(breeds) != 0 {
		t.Fatalf("expected no live breeds, got %d", len(breeds))
	}
}
