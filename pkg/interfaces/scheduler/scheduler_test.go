package scheduler

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vsinha/perishable/pkg/application/services/optimization"
	"github.com/vsinha/perishable/pkg/application/services/orchestration"
	"github.com/vsinha/perishable/pkg/application/services/simulation"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
	"github.com/vsinha/perishable/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/perishable/pkg/infrastructure/solver"
	testhelpers "github.com/vsinha/perishable/pkg/infrastructure/testing"
)

func freshMilk() (*entities.Scenario, error) {
	return &entities.Scenario{
		Name:     "fresh-milk",
		Registry: testhelpers.BuildFreshMilkScenario(),
		Horizon:  8,
		Capacity: 100,
	}, nil
}

func newPlanner(runs repositories.RunRepository) *orchestration.Planner {
	return orchestration.NewPlanner(
		simulation.NewService(nil),
		optimization.NewService(solver.NewSimplexSolver(nil), nil),
		runs, nil,
	)
}

func TestRunOnce_StoresComparison(t *testing.T) {
	runs := memory.NewRunRepository()
	s := NewScheduler(Config{Spec: "@daily"}, newPlanner(runs), freshMilk, nil)

	record, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if record == nil || record.Kind != entities.RunKindComparison {
		t.Fatalf("Expected a comparison record, got %+v", record)
	}

	stored, _ := runs.List(context.Background(), entities.RunKindComparison, 0)
	if len(stored) != 1 {
		t.Errorf("Expected 1 stored comparison, got %d", len(stored))
	}
}

func TestReplan_LogsLoadFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	failing := func() (*entities.Scenario, error) { return nil, errors.New("missing file") }
	s := NewScheduler(Config{Spec: "@daily"}, newPlanner(nil), failing, zap.New(core))

	s.replan()

	if logs.FilterMessage("scheduled comparison failed").Len() != 1 {
		t.Errorf("Expected one failure log, got %d entries", logs.Len())
	}
}

func TestStart_InvalidSpec(t *testing.T) {
	s := NewScheduler(Config{Spec: "every tuesday"}, newPlanner(nil), freshMilk, nil)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Expected error for invalid cron spec")
	}
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(Config{Spec: "0 5 * * *"}, newPlanner(nil), freshMilk, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	s.Stop()
}
