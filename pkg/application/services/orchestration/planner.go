package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/application/services/finance"
	"github.com/vsinha/perishable/pkg/application/services/optimization"
	"github.com/vsinha/perishable/pkg/application/services/simulation"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
	"github.com/vsinha/perishable/pkg/infrastructure/events"
)

// Planner coordinates simulation, optimization and financial reporting
type Planner struct {
	simulation   *simulation.Service
	optimization *optimization.Service
	runs         repositories.RunRepository
	events       events.EventStore
	logger       *zap.Logger
	now          func() time.Time
}

// NewPlanner creates a planner. runs may be nil, in which case nothing is persisted.
func NewPlanner(
	simulationService *simulation.Service,
	optimizationService *optimization.Service,
	runs repositories.RunRepository,
	logger *zap.Logger,
) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		simulation:   simulationService,
		optimization: optimizationService,
		runs:         runs,
		logger:       logger.Named("planner"),
		now:          time.Now,
	}
}

// WithEvents makes every simulation the planner runs publish to store
func (p *Planner) WithEvents(store events.EventStore) *Planner {
	p.events = store
	return p
}

// CompareRequest configures a baseline versus optimized comparison
type CompareRequest struct {
	Scenario    *entities.Scenario
	Granularity dto.Granularity
	HoldingDays int
	Timeout     time.Duration
	// BoundBySales caps optimized production at the baseline's best single-day sale
	BoundBySales bool
}

// Simulate runs the scenario's configured plan and values it
func (p *Planner) Simulate(ctx context.Context, scenario *entities.Scenario) (*dto.ScenarioOutcome, error) {
	if scenario == nil {
		return nil, entities.NewConfigurationError("scenario", nil, "scenario cannot be nil")
	}
	return p.outcome(ctx, simulation.Input{Registry: scenario.Registry, Horizon: scenario.Horizon, RunID: scenario.Name})
}

// Compare simulates the configured plan, optimizes production, simulates the
// optimized plan and reports the difference. Without BoundBySales the baseline
// and the optimization run concurrently.
func (p *Planner) Compare(ctx context.Context, req CompareRequest) (*dto.ComparisonResult, error) {
	scenario := req.Scenario
	if scenario == nil {
		return nil, entities.NewConfigurationError("scenario", nil, "scenario cannot be nil")
	}
	optReq := optimization.Request{
		Capacity:    scenario.Capacity,
		Horizon:     scenario.Horizon,
		Granularity: req.Granularity,
		HoldingDays: req.HoldingDays,
		Timeout:     req.Timeout,
	}

	var baseline *dto.ScenarioOutcome
	var plan *dto.ProductionPlan
	runBaseline := func(ctx context.Context) error {
		var err error
		baseline, err = p.outcome(ctx, simulation.Input{Registry: scenario.Registry, Horizon: scenario.Horizon, RunID: scenario.Name + "/baseline"})
		if err != nil {
			return fmt.Errorf("failed to simulate baseline: %w", err)
		}
		return nil
	}
	runOptimize := func(ctx context.Context) error {
		var err error
		plan, err = p.optimization.Optimize(ctx, scenario.Registry, optReq)
		if err != nil {
			return fmt.Errorf("failed to optimize production: %w", err)
		}
		return nil
	}

	if req.BoundBySales {
		if err := runBaseline(ctx); err != nil {
			return nil, err
		}
		optReq.UpperBounds = optimization.UpperBoundsFromSimulation(baseline.Simulation)
		if err := runOptimize(ctx); err != nil {
			return nil, err
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return runBaseline(gctx) })
		g.Go(func() error { return runOptimize(gctx) })
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	optimized, err := p.outcome(ctx, simulation.Input{
		Registry: scenario.Registry,
		Horizon:  scenario.Horizon,
		Plan:     plan.AsProductionPlan(),
		RunID:    scenario.Name + "/optimized",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to simulate optimized plan: %w", err)
	}

	result := &dto.ComparisonResult{
		Scenario:    scenario.Name,
		Baseline:    *baseline,
		Optimized:   *optimized,
		Plan:        plan,
		ProfitDelta: optimized.Financials.Total.NetProfit.Sub(baseline.Financials.Total.NetProfit),
		WasteDelta:  optimized.Financials.Total.Wasted - baseline.Financials.Total.Wasted,
	}
	p.logger.Info("comparison completed",
		zap.String("scenario", scenario.Name),
		zap.String("baseline_profit", baseline.Financials.Total.NetProfit.String()),
		zap.String("optimized_profit", optimized.Financials.Total.NetProfit.String()),
		zap.Int64("waste_delta", int64(result.WasteDelta)),
	)
	return result, nil
}

// CompareAll runs independent comparisons concurrently, at most limit at a time.
// Results keep the order of the requests.
func (p *Planner) CompareAll(ctx context.Context, reqs []CompareRequest, limit int) ([]*dto.ComparisonResult, error) {
	results := make([]*dto.ComparisonResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			result, err := p.Compare(gctx, req)
			if err != nil {
				name := ""
				if req.Scenario != nil {
					name = req.Scenario.Name
				}
				return fmt.Errorf("scenario %q: %w", name, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Save persists a result under a new run id. It is a no-op returning nil when
// the planner has no repository.
func (p *Planner) Save(ctx context.Context, kind entities.RunKind, scenario string, result interface{}) (*entities.RunRecord, error) {
	if p.runs == nil {
		return nil, nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", kind, err)
	}
	record := &entities.RunRecord{
		Kind:      kind,
		Scenario:  scenario,
		CreatedAt: p.now().UTC(),
		Payload:   payload,
	}
	if err := p.runs.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save %s run: %w", kind, err)
	}
	return record, nil
}

// Run returns a stored run
func (p *Planner) Run(ctx context.Context, id string) (*entities.RunRecord, error) {
	if p.runs == nil {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, id)
	}
	return p.runs.Get(ctx, id)
}

// Runs lists stored runs of a kind, newest first. An empty kind matches all.
func (p *Planner) Runs(ctx context.Context, kind entities.RunKind, limit int) ([]*entities.RunRecord, error) {
	if p.runs == nil {
		return nil, nil
	}
	return p.runs.List(ctx, kind, limit)
}

// Optimize exposes the optimizer together with the plan's financial summary
func (p *Planner) Optimize(ctx context.Context, registry *entities.Registry, req optimization.Request) (*dto.ProductionPlan, *dto.FinancialReport, error) {
	plan, err := p.optimization.Optimize(ctx, registry, req)
	if err != nil {
		return nil, nil, err
	}
	report, err := finance.FromPlan(registry, plan)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to value production plan: %w", err)
	}
	return plan, report, nil
}

func (p *Planner) outcome(ctx context.Context, in simulation.Input) (*dto.ScenarioOutcome, error) {
	in.Events = p.events
	result, err := p.simulation.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	report, err := finance.Aggregate(in.Registry, result)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate financials: %w", err)
	}
	return &dto.ScenarioOutcome{Simulation: result, Financials: report}, nil
}
