// Package solver implements lp.Solver with a min-cost flow for windowed
// programs and gonum's simplex for everything else.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/vsinha/perishable/pkg/domain/services/lp"
)

// DefaultTolerance is the simplex pivot tolerance
const DefaultTolerance = 1e-10

// DefaultMaxConcurrent bounds the simplex runs in flight, abandoned ones included
const DefaultMaxConcurrent = 4

// SimplexSolver solves lp.Problems with gonum's Simplex after converting them
// to standard form (min c.x, Ax = b, x >= 0).
type SimplexSolver struct {
	tolerance float64
	slots     *semaphore.Weighted
	logger    *zap.Logger
}

var _ lp.Solver = (*SimplexSolver)(nil)

// NewSimplexSolver creates a solver with the default tolerance
func NewSimplexSolver(logger *zap.Logger) *SimplexSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimplexSolver{
		tolerance: DefaultTolerance,
		slots:     semaphore.NewWeighted(DefaultMaxConcurrent),
		logger:    logger.Named("solver"),
	}
}

// WithMaxConcurrent limits how many simplex runs may execute at once. A run
// abandoned by its caller keeps its slot until gonum returns.
func (s *SimplexSolver) WithMaxConcurrent(n int) *SimplexSolver {
	if n > 0 {
		s.slots = semaphore.NewWeighted(int64(n))
	}
	return s
}

// standardForm is a problem rewritten over shifted variables y = x - lower
type standardForm struct {
	c       []float64
	a       *mat.Dense
	b       []float64
	basic   []int // nil when a phase I search is needed
	columns []int // original variable index of each structural column
}

type result struct {
	optF float64
	optX []float64
	err  error
}

// Solve implements lp.Solver. When ctx ends first the solve keeps running in
// the background and its result is discarded. Solve waits for a free slot
// before starting gonum and gives up if ctx ends while waiting.
func (s *SimplexSolver) Solve(ctx context.Context, problem *lp.Problem) (*lp.Solution, error) {
	if err := problem.Validate(); err != nil {
		return nil, fmt.Errorf("invalid linear program: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	form, status := s.toStandardForm(problem)
	if status != lp.Optimal {
		return &lp.Solution{Status: status}, nil
	}

	n := problem.NumVariables()
	x := append([]float64(nil), problem.Lower...)
	if form == nil {
		return &lp.Solution{Status: lp.Optimal, Objective: dot(problem.Objective, x), X: x}, nil
	}

	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	start := time.Now()
	done := make(chan result, 1)
	go func() {
		defer s.slots.Release(1)
		optF, optX, err := gonumlp.Simplex(form.c, form.a, form.b, s.tolerance, form.basic)
		done <- result{optF: optF, optX: optX, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		s.logger.Warn("simplex abandoned", zap.Duration("elapsed", time.Since(start)), zap.Error(ctx.Err()))
		return nil, ctx.Err()
	case res = <-done:
	}

	rows, cols := form.a.Dims()
	s.logger.Debug("simplex finished",
		zap.Int("variables", n),
		zap.Int("rows", rows),
		zap.Int("columns", cols),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(res.err),
	)

	if res.err != nil {
		switch {
		case isGonumError(res.err, gonumlp.ErrInfeasible):
			return &lp.Solution{Status: lp.Infeasible}, nil
		case isGonumError(res.err, gonumlp.ErrUnbounded):
			return &lp.Solution{Status: lp.Unbounded}, nil
		default:
			return nil, fmt.Errorf("failed to solve linear program: %w", res.err)
		}
	}

	for k, idx := range form.columns {
		x[idx] += res.optX[k]
	}
	return &lp.Solution{Status: lp.Optimal, Objective: dot(problem.Objective, x), X: x}, nil
}

// toStandardForm shifts variables by their lower bounds, turns finite upper
// bounds into rows and adds one slack per row. Variables whose bounds meet are
// folded into the right-hand sides and get no column. Variables that appear in
// no row are fixed at their lower bound, or make the problem unbounded when
// they improve the objective. A nil form with Optimal status means nothing is
// left to solve.
func (s *SimplexSolver) toStandardForm(problem *lp.Problem) (*standardForm, lp.Status) {
	n := problem.NumVariables()

	type row struct {
		coef map[int]float64
		rhs  float64
	}
	var rows []row
	used := make([]bool, n)
	fixed := make([]bool, n)
	for i := 0; i < n; i++ {
		span := problem.UpperBound(i) - problem.Lower[i]
		if span < -s.tolerance {
			return nil, lp.Infeasible
		}
		fixed[i] = span <= s.tolerance
	}

	for _, c := range problem.Constraints {
		rhs := c.RHS
		coef := make(map[int]float64, len(c.Coefficients))
		for idx, v := range c.Coefficients {
			if v == 0 {
				continue
			}
			rhs -= v * problem.Lower[idx]
			if !fixed[idx] {
				coef[idx] = v
			}
		}
		if len(coef) == 0 {
			if rhs < -s.tolerance {
				return nil, lp.Infeasible
			}
			continue
		}
		for idx := range coef {
			used[idx] = true
		}
		rows = append(rows, row{coef: coef, rhs: rhs})
	}
	for i := 0; i < n; i++ {
		upper := problem.UpperBound(i)
		if fixed[i] || math.IsInf(upper, 1) {
			continue
		}
		used[i] = true
		rows = append(rows, row{coef: map[int]float64{i: 1}, rhs: upper - problem.Lower[i]})
	}

	var columns []int
	colOf := make(map[int]int, n)
	for i := 0; i < n; i++ {
		if used[i] {
			colOf[i] = len(columns)
			columns = append(columns, i)
			continue
		}
		if !fixed[i] && problem.Objective[i] > 0 {
			return nil, lp.Unbounded
		}
	}
	if len(columns) == 0 {
		for _, r := range rows {
			if r.rhs < -s.tolerance {
				return nil, lp.Infeasible
			}
		}
		return nil, lp.Optimal
	}

	m := len(rows)
	width := len(columns) + m
	a := mat.NewDense(m, width, nil)
	b := make([]float64, m)
	c := make([]float64, width)
	for k, idx := range columns {
		c[k] = -problem.Objective[idx]
	}

	feasibleSlacks := true
	basic := make([]int, m)
	for r, rw := range rows {
		sign := 1.0
		if rw.rhs < 0 {
			sign = -1
			feasibleSlacks = false
		}
		for idx, v := range rw.coef {
			a.Set(r, colOf[idx], sign*v)
		}
		a.Set(r, len(columns)+r, sign)
		b[r] = sign * rw.rhs
		basic[r] = len(columns) + r
	}
	if !feasibleSlacks {
		basic = nil
	}

	return &standardForm{c: c, a: a, b: b, basic: basic, columns: columns}, lp.Optimal
}

// isGonumError matches sentinel errors that gonum sometimes formats into a new
// error instead of wrapping.
func isGonumError(err, target error) bool {
	return errors.Is(err, target) || strings.Contains(err.Error(), target.Error())
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
