package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/application/services/optimization"
	"github.com/vsinha/perishable/pkg/application/services/orchestration"
	"github.com/vsinha/perishable/pkg/application/services/simulation"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
	"github.com/vsinha/perishable/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/perishable/pkg/infrastructure/solver"
	testhelpers "github.com/vsinha/perishable/pkg/infrastructure/testing"
)

func newPlanner(runs repositories.RunRepository) *orchestration.Planner {
	return orchestration.NewPlanner(
		simulation.NewService(nil),
		optimization.NewService(solver.NewSimplexSolver(nil), nil),
		runs, nil,
	)
}

// writeJSONScenario stores the fresh milk scenario as a JSON file
func writeJSONScenario(t *testing.T) string {
	t.Helper()
	in := dto.ScenarioInputFromRegistry("fresh-milk", testhelpers.BuildFreshMilkScenario(), 8, 100)
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Failed to encode scenario: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fresh.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write scenario: %v", err)
	}
	return path
}

func TestPlanningCommand_SimulateText(t *testing.T) {
	var out bytes.Buffer
	cmd := NewPlanningCommand(Config{Scenario: writeJSONScenario(t), Format: "text", Out: &out}, newPlanner(nil))

	if err := cmd.Simulate(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Simulation Results", "Horizon: 8 days starting Monday", "TOTAL", "Units of MILK sold by batch production day"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
}

func TestPlanningCommand_SimulateJSONWithOverride(t *testing.T) {
	var out bytes.Buffer
	cmd := NewPlanningCommand(Config{Scenario: writeJSONScenario(t), Horizon: 2, Format: "json", Out: &out}, newPlanner(nil))

	if err := cmd.Simulate(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var outcome dto.ScenarioOutcome
	if err := json.Unmarshal(out.Bytes(), &outcome); err != nil {
		t.Fatalf("Failed to decode JSON output: %v", err)
	}
	if outcome.Simulation.Horizon != 2 {
		t.Errorf("Expected horizon override 2, got %d", outcome.Simulation.Horizon)
	}
}

func TestPlanningCommand_CompareSaves(t *testing.T) {
	runs := memory.NewRunRepository()
	var out bytes.Buffer
	cmd := NewPlanningCommand(Config{Scenario: writeJSONScenario(t), Save: true, Out: &out}, newPlanner(runs))

	if err := cmd.Compare(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	stored, _ := runs.List(context.Background(), entities.RunKindComparison, 0)
	if len(stored) != 1 {
		t.Fatalf("Expected one stored comparison, got %d", len(stored))
	}
	if !strings.Contains(out.String(), "Run ID: "+stored[0].ID) {
		t.Errorf("Expected output to show run id %s", stored[0].ID)
	}
}

func TestPlanningCommand_OptimizeCycle(t *testing.T) {
	var out bytes.Buffer
	cmd := NewPlanningCommand(Config{Scenario: writeJSONScenario(t), Granularity: "cycle", Out: &out}, newPlanner(nil))

	if err := cmd.Optimize(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Granularity: cycle (2 periods over 8 days)") {
		t.Errorf("Expected cycle plan header, got:\n%s", out.String())
	}
}

func TestPlanningCommand_Errors(t *testing.T) {
	path := writeJSONScenario(t)
	tests := []struct {
		name     string
		config   Config
		contains string
	}{
		{"missing scenario", Config{Scenario: filepath.Join(t.TempDir(), "none.yaml")}, "scenario not found"},
		{"bad format", Config{Scenario: path, Format: "xml"}, "unsupported output format"},
		{"csv without dir", Config{Scenario: path, Format: "csv"}, "output directory required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Out = &bytes.Buffer{}
			err := NewPlanningCommand(tt.config, newPlanner(nil)).Simulate(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error containing %q, got %v", tt.contains, err)
			}
		})
	}
}

func TestLoadScenario_UnsupportedSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(path, ScenarioDefaults{Horizon: 28}); err == nil || !strings.Contains(err.Error(), "unsupported scenario source") {
		t.Errorf("Expected unsupported source error, got %v", err)
	}
	if _, err := LoadScenario(t.TempDir(), ScenarioDefaults{Horizon: 28}); err == nil {
		t.Error("Expected error for directory without products.csv")
	}
}
