package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/vsinha/perishable/pkg/application/dto"
)

func writeCSVScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"products.csv": `id,name,shelf_life,selling_price,production_cost,holding_cost_per_day,transport_cost_per_unit,min_daily_production
MILK,Fresh Milk,3,10,4,0.5,1,
`,
		"distributors.csv": `id,name,policy_days,purchase_proportion,distance_km,preferred_products,weekly_schedule,precedence_rank
SHOP,Corner Shop,1,50,0,MILK,all,0
`,
		"production_plan.csv": `day,product_id,quantity
1,MILK,100
2,MILK,100
3,MILK,100
4,MILK,100
5,MILK,100
`,
		"settings.csv": `key,value
name,fresh
horizon,8
`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestCLI_SimulateJSON(t *testing.T) {
	t.Setenv("PERISHABLE_DB_DRIVER", "memory")
	t.Setenv("PERISHABLE_LOG_LEVEL", "error")
	scenario := writeCSVScenario(t)
	envFile := filepath.Join(t.TempDir(), "missing.env")

	app := newCLI()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}

	args := []string{"perishable", "--env", envFile, "simulate", "--scenario", scenario, "--format", "json"}
	if err := app.Run(args); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var outcome dto.ScenarioOutcome
	if err := json.Unmarshal(out.Bytes(), &outcome); err != nil {
		t.Fatalf("Failed to decode JSON output: %v\n%s", err, out.String())
	}
	if outcome.Simulation.Horizon != 8 {
		t.Errorf("Expected horizon 8, got %d", outcome.Simulation.Horizon)
	}
	total := outcome.Financials.Total
	if total.Produced != 500 || total.Sold != 250 || total.Wasted != 250 {
		t.Errorf("Expected 500 produced, 250 sold and 250 wasted, got %d, %d and %d",
			total.Produced, total.Sold, total.Wasted)
	}
}

func TestCLI_MissingScenario(t *testing.T) {
	t.Setenv("PERISHABLE_DB_DRIVER", "memory")
	t.Setenv("PERISHABLE_LOG_LEVEL", "error")

	app := newCLI()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}

	args := []string{"perishable", "--env", filepath.Join(t.TempDir(), "missing.env"),
		"simulate", "--scenario", filepath.Join(t.TempDir(), "nowhere")}
	if err := app.Run(args); err == nil {
		t.Fatal("Expected error for a missing scenario, got nil")
	}
}
