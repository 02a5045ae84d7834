package optimization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/services/lp"
)

// Request parameterizes one optimization
type Request struct {
	// Capacity is the storage limit per window (daily) or per cycle
	Capacity    entities.Quantity
	Horizon     int
	Granularity dto.Granularity
	// HoldingDays multiplies the per-day holding cost in the unit margin; 0 means the configured default
	HoldingDays int
	// UpperBounds caps daily production per product; absent products are uncapped
	UpperBounds map[entities.ProductID]entities.Quantity
	// Timeout bounds the solve; 0 means the configured default
	Timeout time.Duration
}

// DefaultTimeout bounds a solve when neither the request nor the config sets one
const DefaultTimeout = 30 * time.Second

// Recorder observes solver outcomes
type Recorder interface {
	RecordSolve(status string, elapsed time.Duration)
}

// Config holds service defaults
type Config struct {
	DefaultTimeout     time.Duration
	DefaultHoldingDays int
	Recorder           Recorder
}

// Service recommends production quantities that maximize margin under storage capacity
type Service struct {
	solver lp.Solver
	config Config
	logger *zap.Logger
}

// NewService creates an optimization service with default configuration
func NewService(solver lp.Solver, logger *zap.Logger) *Service {
	return NewServiceWithConfig(solver, logger, Config{
		DefaultTimeout:     DefaultTimeout,
		DefaultHoldingDays: 1,
	})
}

// NewServiceWithConfig creates an optimization service with custom configuration
func NewServiceWithConfig(solver lp.Solver, logger *zap.Logger, config Config) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = DefaultTimeout
	}
	if config.DefaultHoldingDays <= 0 {
		config.DefaultHoldingDays = 1
	}
	return &Service{solver: solver, config: config, logger: logger.Named("optimization")}
}

// UpperBoundsFromSimulation caps each product at its largest single-day sale
func UpperBoundsFromSimulation(result *dto.SimulationResult) map[entities.ProductID]entities.Quantity {
	return result.MaxDailySold()
}

// Optimize builds and solves the production model
func (s *Service) Optimize(ctx context.Context, registry *entities.Registry, req Request) (*dto.ProductionPlan, error) {
	req, err := s.normalize(registry, req)
	if err != nil {
		return nil, err
	}
	if req.Capacity == 0 {
		return nil, &entities.InfeasibleError{
			Capacity:   0,
			Horizon:    req.Horizon,
			WindowDays: dto.CycleDays,
			Reason:     "storage capacity is zero",
		}
	}

	m := newModel(registry, req)
	problem := m.build()

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	start := time.Now()
	solution, err := s.solver.Solve(ctx, problem)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.record("timeout", elapsed)
			return nil, &entities.TimeoutError{Timeout: req.Timeout, Err: err}
		}
		s.record("error", elapsed)
		return nil, fmt.Errorf("failed to solve production model: %w", err)
	}
	s.record(solution.Status.String(), elapsed)

	switch solution.Status {
	case lp.Infeasible:
		return nil, &entities.InfeasibleError{
			Capacity:    req.Capacity,
			Horizon:     req.Horizon,
			WindowDays:  dto.CycleDays,
			MinRequired: m.minRequired(),
			Reason:      "committed minimum production does not fit within capacity and bounds",
		}
	case lp.Unbounded:
		return nil, &entities.UnboundedError{
			Products: m.positiveMarginProducts(),
			Reason:   "no capacity constraint limits production",
		}
	}

	plan := m.plan(solution.X)
	s.logger.Info("production plan optimized",
		zap.Int("horizon", req.Horizon),
		zap.String("granularity", string(req.Granularity)),
		zap.Int64("capacity", int64(req.Capacity)),
		zap.String("objective", plan.Objective.String()),
		zap.Duration("elapsed", elapsed),
	)
	return plan, nil
}

func (s *Service) normalize(registry *entities.Registry, req Request) (Request, error) {
	if registry == nil {
		return req, entities.NewConfigurationError("registry", nil, "registry cannot be nil")
	}
	if err := entities.ValidateHorizon(req.Horizon); err != nil {
		return req, err
	}
	if req.Capacity < 0 {
		return req, entities.NewConfigurationError("capacity", req.Capacity,
			"capacity cannot be negative, got %d", req.Capacity)
	}
	if req.HoldingDays < 0 {
		return req, entities.NewConfigurationError("holding_days", req.HoldingDays,
			"holding days cannot be negative, got %d", req.HoldingDays)
	}
	switch req.Granularity {
	case "":
		req.Granularity = dto.GranularityDaily
	case dto.GranularityDaily, dto.GranularityCycle:
	default:
		return req, entities.NewConfigurationError("granularity", req.Granularity,
			"granularity must be %q or %q, got %q", dto.GranularityDaily, dto.GranularityCycle, req.Granularity)
	}
	for id, bound := range req.UpperBounds {
		if _, ok := registry.Product(id); !ok {
			return req, entities.NewConfigurationError("upper_bounds", id, "upper bound for unknown product %s", id)
		}
		if bound < 0 {
			return req, entities.NewConfigurationError("upper_bounds", bound,
				"upper bound cannot be negative for product %s, got %d", id, bound)
		}
	}
	if req.HoldingDays == 0 {
		req.HoldingDays = s.config.DefaultHoldingDays
	}
	if req.Timeout <= 0 {
		req.Timeout = s.config.DefaultTimeout
	}
	return req, nil
}

func (s *Service) record(status string, elapsed time.Duration) {
	if s.config.Recorder != nil {
		s.config.Recorder.RecordSolve(status, elapsed)
	}
}

// model maps products and periods onto LP variables. Variable j*periods+p is
// product j in period p.
type model struct {
	registry *entities.Registry
	req      Request
	products []entities.Product
	margins  []decimal.Decimal
	periods  int
	lower    []float64
	upper    []float64
	open     []bool // plant open, indexed by day-1
}

func newModel(registry *entities.Registry, req Request) *model {
	m := &model{
		registry: registry,
		req:      req,
		products: registry.Products(),
		open:     make([]bool, req.Horizon),
	}
	for d := range m.open {
		m.open[d] = registry.PlantDays().Contains(registry.WeekdayOf(entities.Day(d + 1)))
	}
	m.periods = req.Horizon
	if req.Granularity == dto.GranularityCycle {
		m.periods = (req.Horizon + dto.CycleDays - 1) / dto.CycleDays
	}
	for _, p := range m.products {
		m.margins = append(m.margins, p.UnitMargin(req.HoldingDays))
	}
	return m
}

func (m *model) variable(j, p int) int {
	return j*m.periods + p
}

// periodDays returns the zero-based days of a period
func (m *model) periodDays(p int) []int {
	if m.req.Granularity != dto.GranularityCycle {
		return []int{p}
	}
	var days []int
	for d := p * dto.CycleDays; d < (p+1)*dto.CycleDays && d < m.req.Horizon; d++ {
		days = append(days, d)
	}
	return days
}

func (m *model) openDays(p int) int {
	count := 0
	for _, d := range m.periodDays(p) {
		if m.open[d] {
			count++
		}
	}
	return count
}

// windows lists the periods sharing one capacity limit
func (m *model) windows() [][]int {
	if m.req.Granularity == dto.GranularityCycle {
		w := make([][]int, m.periods)
		for p := range w {
			w[p] = []int{p}
		}
		return w
	}
	if m.req.Horizon <= dto.CycleDays {
		all := make([]int, m.req.Horizon)
		for d := range all {
			all[d] = d
		}
		return [][]int{all}
	}
	var w [][]int
	for start := 0; start+dto.CycleDays <= m.req.Horizon; start++ {
		window := make([]int, dto.CycleDays)
		for k := range window {
			window[k] = start + k
		}
		w = append(w, window)
	}
	return w
}

func (m *model) build() *lp.Problem {
	n := len(m.products) * m.periods
	problem := lp.NewProblem(n)
	m.lower = problem.Lower
	m.upper = problem.Upper

	for j, product := range m.products {
		margin, _ := m.margins[j].Float64()
		bound, capped := m.req.UpperBounds[product.ID]
		for p := 0; p < m.periods; p++ {
			v := m.variable(j, p)
			open := float64(m.openDays(p))
			problem.Names[v] = fmt.Sprintf("Q[%s][%d]", product.ID, p+1)
			problem.Objective[v] = margin
			problem.Lower[v] = float64(product.MinDailyProduction) * open
			if capped {
				problem.Upper[v] = float64(bound) * open
			}
			if open == 0 {
				problem.Upper[v] = 0
			}
		}
	}

	for k, window := range m.windows() {
		coefficients := make(map[int]float64, len(window)*len(m.products))
		for j := range m.products {
			for _, p := range window {
				coefficients[m.variable(j, p)] = 1
			}
		}
		problem.AddConstraint(fmt.Sprintf("capacity[%d]", k+1), coefficients, float64(m.req.Capacity))
	}
	return problem
}

// minRequired is the largest committed production falling in one capacity window
func (m *model) minRequired() entities.Quantity {
	var worst float64
	for _, window := range m.windows() {
		var sum float64
		for j := range m.products {
			for _, p := range window {
				sum += m.lower[m.variable(j, p)]
			}
		}
		worst = math.Max(worst, sum)
	}
	return entities.Quantity(math.Round(worst))
}

func (m *model) positiveMarginProducts() []entities.ProductID {
	var ids []entities.ProductID
	for j, p := range m.products {
		if m.margins[j].IsPositive() {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// plan rounds the solution to whole units and expands periods onto days
func (m *model) plan(x []float64) *dto.ProductionPlan {
	plan := &dto.ProductionPlan{
		Granularity: m.req.Granularity,
		Horizon:     m.req.Horizon,
		Periods:     m.periods,
		Capacity:    m.req.Capacity,
		HoldingDays: m.req.HoldingDays,
		Objective:   decimal.Zero,
	}
	for j, product := range m.products {
		pp := dto.ProductPlan{
			ProductID: product.ID,
			Margin:    m.margins[j],
			Periods:   make([]entities.Quantity, m.periods),
			Daily:     make([]entities.Quantity, m.req.Horizon),
		}
		for p := 0; p < m.periods; p++ {
			q := entities.Quantity(math.Round(math.Max(x[m.variable(j, p)], 0)))
			pp.Periods[p] = q
			pp.Total += q
			m.spread(q, p, pp.Daily)
		}
		pp.Profit = pp.Margin.Mul(decimal.NewFromInt(int64(pp.Total)))
		plan.Objective = plan.Objective.Add(pp.Profit)
		plan.Products = append(plan.Products, pp)
	}
	return plan
}

// spread distributes a period quantity evenly over its open days, giving any
// remainder to the earliest ones
func (m *model) spread(q entities.Quantity, p int, daily []entities.Quantity) {
	var open []int
	for _, d := range m.periodDays(p) {
		if m.open[d] {
			open = append(open, d)
		}
	}
	if len(open) == 0 {
		return
	}
	share := q / entities.Quantity(len(open))
	extra := q % entities.Quantity(len(open))
	for i, d := range open {
		daily[d] = share
		if entities.Quantity(i) < extra {
			daily[d]++
		}
	}
}
