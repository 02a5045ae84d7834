// Package lp describes linear programs in the shape the production optimizer
// needs and the capability that solves them.
package lp

import (
	"context"
	"fmt"
	"math"
)

// Status is the outcome of a solve
type Status int

const (
	Optimal Status = iota
	Infeasible
	Unbounded
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	default:
		return "Unknown"
	}
}

// Constraint is sum(Coefficients[i] * x[i]) <= RHS. Coefficients are sparse, keyed by variable index.
type Constraint struct {
	Name         string
	Coefficients map[int]float64
	RHS          float64
}

// Problem maximizes Objective . x subject to Constraints and Lower <= x <= Upper.
// A nil Upper, or an infinite entry, leaves the variable unbounded above.
type Problem struct {
	Names       []string
	Objective   []float64
	Constraints []Constraint
	Lower       []float64
	Upper       []float64
}

// NewProblem creates a problem with n variables, zero objective and zero lower bounds
func NewProblem(n int) *Problem {
	p := &Problem{
		Names:     make([]string, n),
		Objective: make([]float64, n),
		Lower:     make([]float64, n),
		Upper:     make([]float64, n),
	}
	for i := range p.Upper {
		p.Upper[i] = math.Inf(1)
	}
	return p
}

// NumVariables returns the number of decision variables
func (p *Problem) NumVariables() int {
	return len(p.Objective)
}

// AddConstraint appends a <= constraint
func (p *Problem) AddConstraint(name string, coefficients map[int]float64, rhs float64) {
	p.Constraints = append(p.Constraints, Constraint{Name: name, Coefficients: coefficients, RHS: rhs})
}

// Validate checks the problem's dimensions
func (p *Problem) Validate() error {
	n := len(p.Objective)
	if n == 0 {
		return fmt.Errorf("problem has no variables")
	}
	if len(p.Lower) != n || (p.Upper != nil && len(p.Upper) != n) {
		return fmt.Errorf("bounds length mismatch: %d variables, %d lower, %d upper", n, len(p.Lower), len(p.Upper))
	}
	for i := 0; i < n; i++ {
		if math.IsInf(p.Lower[i], 0) || math.IsNaN(p.Lower[i]) {
			return fmt.Errorf("variable %d lower bound must be finite", i)
		}
	}
	for _, c := range p.Constraints {
		for idx := range c.Coefficients {
			if idx < 0 || idx >= n {
				return fmt.Errorf("constraint %s references variable %d out of range", c.Name, idx)
			}
		}
	}
	return nil
}

// UpperBound returns the upper bound of variable i, +Inf when unset
func (p *Problem) UpperBound(i int) float64 {
	if p.Upper == nil {
		return math.Inf(1)
	}
	return p.Upper[i]
}

// Solution is the result of a solve. X and Objective are set only when Status is Optimal.
type Solution struct {
	Status    Status
	Objective float64
	X         []float64
}

// Solver solves linear programs. Implementations must return promptly with
// ctx.Err() once ctx is done.
type Solver interface {
	Solve(ctx context.Context, problem *Problem) (*Solution, error)
}
