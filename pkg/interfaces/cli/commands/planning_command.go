package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/application/services/optimization"
	"github.com/vsinha/perishable/pkg/application/services/orchestration"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/interfaces/cli/output"
)

// Config holds configuration shared by the simulate, optimize and compare commands
type Config struct {
	Scenario string
	// Horizon and Capacity override the scenario's values when positive
	Horizon        int
	Capacity       int64
	DefaultHorizon int
	// TransportRate applies to scenarios that set no per-km rate
	TransportRate *decimal.Decimal

	Granularity  string
	HoldingDays  int
	Timeout      time.Duration
	BoundBySales bool

	Format    string
	OutputDir string
	Verbose   bool
	Save      bool
	Out       io.Writer
}

func (c Config) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c Config) outputConfig(elapsed time.Duration, record *entities.RunRecord) output.Config {
	cfg := output.Config{
		Format:    c.Format,
		OutputDir: c.OutputDir,
		Verbose:   c.Verbose,
		Elapsed:   elapsed,
		Writer:    c.out(),
	}
	if record != nil {
		cfg.RunID = record.ID
	}
	return cfg
}

// PlanningCommand runs one planner operation against a scenario
type PlanningCommand struct {
	config  Config
	planner *orchestration.Planner
}

// NewPlanningCommand creates a command bound to a planner
func NewPlanningCommand(config Config, planner *orchestration.Planner) *PlanningCommand {
	return &PlanningCommand{config: config, planner: planner}
}

func (c *PlanningCommand) loadScenario() (*entities.Scenario, error) {
	defaultHorizon := c.config.DefaultHorizon
	if defaultHorizon == 0 {
		defaultHorizon = 28
	}
	scenario, err := LoadScenario(c.config.Scenario, ScenarioDefaults{
		Horizon:       defaultHorizon,
		TransportRate: c.config.TransportRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	if c.config.Horizon > 0 {
		scenario.Horizon = c.config.Horizon
	}
	if c.config.Capacity > 0 {
		scenario.Capacity = entities.Quantity(c.config.Capacity)
	}
	if c.config.Verbose {
		fmt.Fprintf(c.config.out(), "Loaded scenario %s: %d products, %d distributors, %d days\n\n",
			scenario.Name, len(scenario.Registry.ProductIDs()), len(scenario.Registry.Distributors()), scenario.Horizon)
	}
	return scenario, nil
}

// Simulate runs the scenario's configured production plan
func (c *PlanningCommand) Simulate(ctx context.Context) error {
	scenario, err := c.loadScenario()
	if err != nil {
		return err
	}

	start := time.Now()
	outcome, err := c.planner.Simulate(ctx, scenario)
	if err != nil {
		return fmt.Errorf("error running simulation: %w", err)
	}
	elapsed := time.Since(start)

	var record *entities.RunRecord
	if c.config.Save {
		if record, err = c.planner.Save(ctx, entities.RunKindSimulation, scenario.Name, outcome); err != nil {
			return err
		}
	}
	if err := output.GenerateSimulation(outcome, c.config.outputConfig(elapsed, record)); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}

// Optimize recommends a production plan for the scenario's capacity
func (c *PlanningCommand) Optimize(ctx context.Context) error {
	scenario, err := c.loadScenario()
	if err != nil {
		return err
	}

	start := time.Now()
	plan, report, err := c.planner.Optimize(ctx, scenario.Registry, optimization.Request{
		Capacity:    scenario.Capacity,
		Horizon:     scenario.Horizon,
		Granularity: dto.Granularity(c.config.Granularity),
		HoldingDays: c.config.HoldingDays,
		Timeout:     c.config.Timeout,
	})
	if err != nil {
		return fmt.Errorf("error optimizing production: %w", err)
	}
	elapsed := time.Since(start)

	var record *entities.RunRecord
	if c.config.Save {
		if record, err = c.planner.Save(ctx, entities.RunKindOptimization, scenario.Name, plan); err != nil {
			return err
		}
	}
	if err := output.GeneratePlan(plan, report, c.config.outputConfig(elapsed, record)); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}

// Compare simulates the configured and the optimized plans side by side
func (c *PlanningCommand) Compare(ctx context.Context) error {
	scenario, err := c.loadScenario()
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := c.planner.Compare(ctx, orchestration.CompareRequest{
		Scenario:     scenario,
		Granularity:  dto.Granularity(c.config.Granularity),
		HoldingDays:  c.config.HoldingDays,
		Timeout:      c.config.Timeout,
		BoundBySales: c.config.BoundBySales,
	})
	if err != nil {
		return fmt.Errorf("error comparing plans: %w", err)
	}
	elapsed := time.Since(start)

	var record *entities.RunRecord
	if c.config.Save {
		if record, err = c.planner.Save(ctx, entities.RunKindComparison, scenario.Name, result); err != nil {
			return err
		}
	}
	if err := output.GenerateComparison(result, c.config.outputConfig(elapsed, record)); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}
