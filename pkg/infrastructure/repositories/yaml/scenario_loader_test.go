package yaml

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/domain/entities"
	testhelpers "github.com/vsinha/perishable/pkg/infrastructure/testing"
)

const dairyYAML = `
name: dairy
start_weekday: tue
transport_rate_per_km: 0.02
plant_days: mon-sat
horizon: 12
capacity: 400
products:
  - id: MILK
    name: Fresh Milk
    shelf_life: 3
    selling_price: 2.50
    production_cost: "1.10"
    holding_cost_per_day: 0.05
    transport_cost_per_unit: 0.10
    production_plan: [100, 100, 100]
distributors:
  - id: GROCER
    name: City Grocer
    policy_days: 2
    purchase_proportion: 40
    distance_km: 12.5
    preferred_products: [MILK]
    weekly_schedule: mon-fri
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	scenario, err := NewLoader(28).LoadScenario(writeFile(t, "dairy.yaml", dairyYAML))
	if err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	if scenario.Name != "dairy" || scenario.Horizon != 12 || scenario.Capacity != 400 {
		t.Errorf("Expected dairy/12/400, got %s/%d/%d", scenario.Name, scenario.Horizon, scenario.Capacity)
	}
	if scenario.Registry.StartWeekday() != time.Tuesday {
		t.Errorf("Expected Tuesday start, got %v", scenario.Registry.StartWeekday())
	}

	milk, _ := scenario.Registry.Product("MILK")
	if !milk.Pricing.SellingPrice.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected selling price 2.5, got %s", milk.Pricing.SellingPrice)
	}
	if !milk.Pricing.ProductionCost.Equal(decimal.RequireFromString("1.1")) {
		t.Errorf("Expected quoted production cost 1.1, got %s", milk.Pricing.ProductionCost)
	}
	if len(milk.ProductionPlan) != 3 {
		t.Errorf("Expected 3 planned days, got %d", len(milk.ProductionPlan))
	}

	grocer, _ := scenario.Registry.Distributor("GROCER")
	if grocer.PrecedenceRank != 2 {
		t.Errorf("Expected rank to default to policy days 2, got %d", grocer.PrecedenceRank)
	}
	if !grocer.DistanceKm.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("Expected distance 12.5, got %s", grocer.DistanceKm)
	}
	if grocer.WeeklySchedule.Contains(time.Saturday) {
		t.Error("Expected GROCER closed on Saturday")
	}
}

func TestLoadScenario_NameAndHorizonDefaults(t *testing.T) {
	content := strings.Replace(strings.Replace(dairyYAML, "name: dairy\n", "", 1), "horizon: 12\n", "", 1)
	scenario, err := NewLoader(28).LoadScenario(writeFile(t, "weekly.yml", content))
	if err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}
	if scenario.Name != "weekly" {
		t.Errorf("Expected name from file, got %s", scenario.Name)
	}
	if scenario.Horizon != 28 {
		t.Errorf("Expected default horizon 28, got %d", scenario.Horizon)
	}
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains string
		config   bool
	}{
		{"unknown key", dairyYAML + "colour: blue\n", "colour", false},
		{"bad amount", strings.Replace(dairyYAML, "selling_price: 2.50", "selling_price: cheap", 1), "invalid amount", false},
		{"negative price", strings.Replace(dairyYAML, "selling_price: 2.50", "selling_price: -1", 1), "selling_price cannot be negative", true},
		{"policy too long", strings.Replace(dairyYAML, "policy_days: 2", "policy_days: 31", 1), "policy days must be between", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(28).LoadScenario(writeFile(t, "bad.yaml", tt.content))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error containing %q, got %v", tt.contains, err)
			}
			var cfgErr *entities.ConfigurationError
			if tt.config != errors.As(err, &cfgErr) {
				t.Errorf("Expected ConfigurationError=%v, got %T", tt.config, err)
			}
		})
	}
}

func TestEncode_ReloadsSameRegistry(t *testing.T) {
	registry := testhelpers.BuildRegionalScenario()
	in := dto.ScenarioInputFromRegistry("regional", registry, 14, 900)

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	decoded, err := NewLoader(28).Decode(data)
	if err != nil {
		t.Fatalf("Failed to decode encoded scenario: %v\n%s", err, data)
	}
	scenario, err := decoded.ToScenario()
	if err != nil {
		t.Fatalf("Failed to rebuild scenario: %v", err)
	}

	if scenario.Horizon != 14 || scenario.Capacity != 900 {
		t.Errorf("Expected 14/900, got %d/%d", scenario.Horizon, scenario.Capacity)
	}
	if scenario.Registry.PlantDays() != registry.PlantDays() {
		t.Errorf("Expected plant days %s, got %s", registry.PlantDays(), scenario.Registry.PlantDays())
	}
	for _, want := range registry.Distributors() {
		got, ok := scenario.Registry.Distributor(want.ID)
		if !ok {
			t.Fatalf("Expected distributor %s", want.ID)
		}
		if got.WeeklySchedule != want.WeeklySchedule || got.PrecedenceRank != want.PrecedenceRank {
			t.Errorf("Distributor %s: expected %s/%d, got %s/%d", want.ID,
				want.WeeklySchedule, want.PrecedenceRank, got.WeeklySchedule, got.PrecedenceRank)
		}
		if !got.DistanceKm.Equal(want.DistanceKm) {
			t.Errorf("Distributor %s: expected distance %s, got %s", want.ID, want.DistanceKm, got.DistanceKm)
		}
	}
	yogurt, _ := scenario.Registry.Product("YOGURT")
	if yogurt.MinDailyProduction != 20 {
		t.Errorf("Expected YOGURT minimum 20, got %d", yogurt.MinDailyProduction)
	}
}

func TestIsScenarioFile(t *testing.T) {
	for path, want := range map[string]bool{"a.yaml": true, "b.YML": true, "c.csv": false, "dir": false} {
		if got := IsScenarioFile(path); got != want {
			t.Errorf("%s: expected %v, got %v", path, want, got)
		}
	}
}
