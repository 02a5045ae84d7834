package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
)

func openTestRepository(t *testing.T) *RunRepository {
	t.Helper()
	repo, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "runs", "test.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRunRepository_SaveAndGet(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	record := &entities.RunRecord{Kind: entities.RunKindOptimization, Scenario: "dairy", Payload: []byte(`{"objective":"450"}`)}
	if err := repo.Save(ctx, record); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if record.ID == "" || record.CreatedAt.IsZero() {
		t.Fatalf("Expected id and timestamp to be assigned, got %+v", record)
	}

	got, err := repo.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.Kind != entities.RunKindOptimization || got.Scenario != "dairy" {
		t.Errorf("Expected optimization/dairy, got %s/%s", got.Kind, got.Scenario)
	}
	if string(got.Payload) != `{"objective":"450"}` {
		t.Errorf("Expected payload to round trip, got %s", got.Payload)
	}
	if !got.CreatedAt.Equal(record.CreatedAt) {
		t.Errorf("Expected created at %v, got %v", record.CreatedAt, got.CreatedAt)
	}

	record.Payload = []byte(`{"objective":"500"}`)
	if err := repo.Save(ctx, record); err != nil {
		t.Fatalf("Failed to overwrite: %v", err)
	}
	got, _ = repo.Get(ctx, record.ID)
	if string(got.Payload) != `{"objective":"500"}` {
		t.Errorf("Expected overwritten payload, got %s", got.Payload)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, repositories.ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestRunRepository_ListNewestFirst(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

	for i, kind := range []entities.RunKind{
		entities.RunKindSimulation, entities.RunKindComparison, entities.RunKindSimulation, entities.RunKindSimulation,
	} {
		record := &entities.RunRecord{Kind: kind, Scenario: "s", CreatedAt: base.Add(time.Duration(i) * time.Hour), Payload: []byte("{}")}
		if err := repo.Save(ctx, record); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
	}

	sims, err := repo.List(ctx, entities.RunKindSimulation, 2)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(sims) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(sims))
	}
	if !sims[0].CreatedAt.Equal(base.Add(3*time.Hour)) || !sims[1].CreatedAt.Equal(base.Add(2*time.Hour)) {
		t.Errorf("Expected newest first, got %v then %v", sims[0].CreatedAt, sims[1].CreatedAt)
	}

	all, err := repo.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 records, got %d", len(all))
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "x"); err == nil {
		t.Error("Expected error for unsupported driver")
	}
	if _, err := Open(context.Background(), DriverPostgres, ""); err == nil {
		t.Error("Expected error for empty postgres dsn")
	}
}

func TestRebind(t *testing.T) {
	pg := NewRunRepository(nil, DriverPostgres)
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("Expected $n placeholders, got %q", got)
	}
	lite := NewRunRepository(nil, DriverSQLite)
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("Expected sqlite query unchanged, got %q", got)
	}
}
