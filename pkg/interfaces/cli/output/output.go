package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Elapsed   time.Duration
	// RunID is printed when the result was persisted
	RunID string
	// Writer receives text and stdout JSON output; nil means os.Stdout
	Writer io.Writer
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// GenerateSimulation renders a simulation and its financial summary
func GenerateSimulation(outcome *dto.ScenarioOutcome, config Config) error {
	switch config.Format {
	case "text", "":
		writeSimulationText(config.writer(), outcome, config)
		return nil
	case "json":
		return generateJSON(outcome, "simulation.json", config)
	case "csv":
		return generateCSV(config, simulationTables(outcome))
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GeneratePlan renders an optimized production plan
func GeneratePlan(plan *dto.ProductionPlan, report *dto.FinancialReport, config Config) error {
	switch config.Format {
	case "text", "":
		writePlanText(config.writer(), plan, report, config)
		return nil
	case "json":
		return generateJSON(struct {
			Plan       *dto.ProductionPlan  `json:"plan"`
			Financials *dto.FinancialReport `json:"financials"`
		}{plan, report}, "production_plan.json", config)
	case "csv":
		return generateCSV(config, planTables(plan, report))
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateComparison renders a baseline versus optimized comparison
func GenerateComparison(result *dto.ComparisonResult, config Config) error {
	switch config.Format {
	case "text", "":
		writeComparisonText(config.writer(), result, config)
		return nil
	case "json":
		return generateJSON(result, "comparison.json", config)
	case "csv":
		tables := planTables(result.Plan, nil)
		tables = append(tables, comparisonTable(result))
		return generateCSV(config, tables)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func generateJSON(v interface{}, filename string, config Config) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(config.writer(), string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(config.OutputDir, filename)
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "JSON results saved to: %s\n", path)
	}
	return nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
