package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
)

func TestRunRepository_SaveAndGet(t *testing.T) {
	repo := NewRunRepository()
	ctx := context.Background()

	record := &entities.RunRecord{Kind: entities.RunKindSimulation, Scenario: "base", Payload: []byte(`{"ok":true}`)}
	if err := repo.Save(ctx, record); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if record.ID == "" {
		t.Fatal("Expected an id to be assigned")
	}

	got, err := repo.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if string(got.Payload) != `{"ok":true}` {
		t.Errorf("Expected payload to round trip, got %s", got.Payload)
	}

	_, err = repo.Get(ctx, "missing")
	if !errors.Is(err, repositories.ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestRunRepository_ListNewestFirst(t *testing.T) {
	repo := NewRunRepository()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, kind := range []entities.RunKind{entities.RunKindSimulation, entities.RunKindOptimization, entities.RunKindSimulation} {
		_ = repo.Save(ctx, &entities.RunRecord{Kind: kind, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	sims, _ := repo.List(ctx, entities.RunKindSimulation, 0)
	if len(sims) != 2 {
		t.Fatalf("Expected 2 simulations, got %d", len(sims))
	}
	if !sims[0].CreatedAt.After(sims[1].CreatedAt) {
		t.Error("Expected newest record first")
	}

	all, _ := repo.List(ctx, "", 1)
	if len(all) != 1 {
		t.Errorf("Expected limit to apply, got %d", len(all))
	}
}
