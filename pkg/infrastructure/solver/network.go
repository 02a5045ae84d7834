package solver

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/perishable/pkg/domain/services/lp"
)

// ErrNotWindowed is returned by a NetworkSolver without a fallback when a
// problem's constraints are not consecutive unit windows
var ErrNotWindowed = errors.New("constraints are not consecutive unit windows")

// NetworkSolver solves windowed programs as a min-cost flow. A program is
// windowed when every coefficient is 1 and each variable appears in a
// contiguous run of constraints, which is the shape of rolling capacity
// windows and of disjoint cycles. Differencing consecutive constraints turns
// such a system into flow conservation on a chain of nodes, where a variable
// is an arc from its first constraint to one past its last and each slack is
// an arc between neighbours. Other programs go to the fallback solver.
type NetworkSolver struct {
	fallback  lp.Solver
	tolerance float64
	logger    *zap.Logger
}

var _ lp.Solver = (*NetworkSolver)(nil)

// NewNetworkSolver creates a solver that hands non-windowed programs to
// fallback. fallback may be nil.
func NewNetworkSolver(fallback lp.Solver, logger *zap.Logger) *NetworkSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NetworkSolver{fallback: fallback, tolerance: 1e-9, logger: logger.Named("network")}
}

type arc struct {
	to       int
	rev      int
	cap      float64
	cost     float64
	variable int // -1 for slack and supply arcs
}

type flowGraph struct {
	adj [][]arc
}

func (g *flowGraph) addArc(from, to int, capacity, cost float64, variable int) {
	g.adj[from] = append(g.adj[from], arc{to: to, rev: len(g.adj[to]), cap: capacity, cost: cost, variable: variable})
	g.adj[to] = append(g.adj[to], arc{to: from, rev: len(g.adj[from]) - 1, cost: -cost, variable: -1})
}

// Solve implements lp.Solver. ctx is checked between augmentations.
func (s *NetworkSolver) Solve(ctx context.Context, problem *lp.Problem) (*lp.Solution, error) {
	if err := problem.Validate(); err != nil {
		return nil, fmt.Errorf("invalid linear program: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	first, last, ok := s.windows(problem)
	if !ok {
		if s.fallback == nil {
			return nil, ErrNotWindowed
		}
		s.logger.Debug("program is not windowed, using fallback")
		return s.fallback.Solve(ctx, problem)
	}

	n := problem.NumVariables()
	rows := len(problem.Constraints)
	x := append([]float64(nil), problem.Lower...)

	// remaining capacity of each constraint once every variable sits at its lower bound
	rhs := make([]float64, rows)
	for k, c := range problem.Constraints {
		rhs[k] = c.RHS
		for idx, v := range c.Coefficients {
			rhs[k] -= v * problem.Lower[idx]
		}
	}

	// nodes 0..rows are the differenced constraints, then source and sink
	source, sink := rows+1, rows+2
	g := &flowGraph{adj: make([][]arc, rows+3)}

	supply := make([]float64, rows+1)
	var total float64
	for k := 0; k <= rows; k++ {
		b := 0.0
		if k < rows {
			b += rhs[k]
		}
		if k > 0 {
			b -= rhs[k-1]
		}
		supply[k] = b
		if b > s.tolerance {
			total += b
		}
	}

	for i := 0; i < n; i++ {
		upper := problem.UpperBound(i)
		span := upper - problem.Lower[i]
		if span < -s.tolerance {
			return &lp.Solution{Status: lp.Infeasible}, nil
		}
		if problem.Objective[i] <= s.tolerance || span <= s.tolerance {
			continue
		}
		if first[i] < 0 {
			if math.IsInf(upper, 1) {
				return &lp.Solution{Status: lp.Unbounded}, nil
			}
			x[i] = upper
			continue
		}
		capacity := math.Min(span, total)
		if capacity <= s.tolerance {
			continue
		}
		g.addArc(first[i], last[i]+1, capacity, -problem.Objective[i], i)
	}
	for k := 0; k < rows; k++ {
		g.addArc(k, k+1, total, 0, -1)
	}
	for k, b := range supply {
		switch {
		case b > s.tolerance:
			g.addArc(source, k, b, 0, -1)
		case b < -s.tolerance:
			g.addArc(k, sink, -b, 0, -1)
		}
	}

	start := time.Now()
	sent, augmentations, err := s.minCostFlow(ctx, g, source, sink)
	if err != nil {
		s.logger.Warn("network solve abandoned", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}
	s.logger.Debug("network solve finished",
		zap.Int("variables", n),
		zap.Int("constraints", rows),
		zap.Int("augmentations", augmentations),
		zap.Duration("elapsed", time.Since(start)),
	)
	if sent < total-s.tolerance*math.Max(1, total) {
		return &lp.Solution{Status: lp.Infeasible}, nil
	}

	for u := range g.adj {
		for _, a := range g.adj[u] {
			if a.variable < 0 {
				continue
			}
			used := g.adj[a.to][a.rev].cap
			x[a.variable] += used
		}
	}
	return &lp.Solution{Status: lp.Optimal, Objective: dot(problem.Objective, x), X: x}, nil
}

// windows returns the first and last constraint of each variable, -1 when it
// appears in none. ok is false when the program is not windowed.
func (s *NetworkSolver) windows(problem *lp.Problem) (first, last []int, ok bool) {
	n := problem.NumVariables()
	first = make([]int, n)
	last = make([]int, n)
	for i := range first {
		first[i], last[i] = -1, -1
	}
	for k, c := range problem.Constraints {
		for idx, v := range c.Coefficients {
			if v == 0 {
				continue
			}
			if math.Abs(v-1) > s.tolerance {
				return nil, nil, false
			}
			switch {
			case first[idx] < 0:
				first[idx], last[idx] = k, k
			case last[idx] == k-1:
				last[idx] = k
			default:
				return nil, nil, false
			}
		}
	}
	return first, last, true
}

// minCostFlow pushes as much flow as possible from source to sink along
// successive shortest paths, using node potentials so Dijkstra can run on
// reduced costs.
func (s *NetworkSolver) minCostFlow(ctx context.Context, g *flowGraph, source, sink int) (float64, int, error) {
	nodes := len(g.adj)
	potential := s.initialPotentials(g, source)
	dist := make([]float64, nodes)
	prevNode := make([]int, nodes)
	prevArc := make([]int, nodes)

	var sent float64
	augmentations := 0
	for {
		if err := ctx.Err(); err != nil {
			return sent, augmentations, err
		}

		for v := range dist {
			dist[v] = math.Inf(1)
			prevNode[v] = -1
		}
		dist[source] = 0
		pq := &nodeQueue{{node: source}}
		for pq.Len() > 0 {
			item := heap.Pop(pq).(nodeItem)
			u := item.node
			if item.dist > dist[u] {
				continue
			}
			for i, a := range g.adj[u] {
				if a.cap <= s.tolerance || math.IsInf(potential[a.to], 1) {
					continue
				}
				reduced := math.Max(a.cost+potential[u]-potential[a.to], 0)
				if d := dist[u] + reduced; d < dist[a.to]-s.tolerance {
					dist[a.to] = d
					prevNode[a.to] = u
					prevArc[a.to] = i
					heap.Push(pq, nodeItem{node: a.to, dist: d})
				}
			}
		}
		if math.IsInf(dist[sink], 1) {
			return sent, augmentations, nil
		}
		for v := range potential {
			if !math.IsInf(potential[v], 1) {
				potential[v] += math.Min(dist[v], dist[sink])
			}
		}

		push := math.Inf(1)
		for v := sink; v != source; v = prevNode[v] {
			push = math.Min(push, g.adj[prevNode[v]][prevArc[v]].cap)
		}
		for v := sink; v != source; v = prevNode[v] {
			a := &g.adj[prevNode[v]][prevArc[v]]
			a.cap -= push
			g.adj[v][a.rev].cap += push
		}
		sent += push
		augmentations++
	}
}

// initialPotentials computes shortest distances from source. Every arc of a
// fresh graph points from a lower to a higher constraint node, or out of the
// source or into the sink, so one pass in that order settles them.
func (s *NetworkSolver) initialPotentials(g *flowGraph, source int) []float64 {
	nodes := len(g.adj)
	potential := make([]float64, nodes)
	for v := range potential {
		potential[v] = math.Inf(1)
	}
	potential[source] = 0

	order := make([]int, 0, nodes)
	order = append(order, source)
	for v := 0; v < source; v++ {
		order = append(order, v)
	}
	order = append(order, source+1)

	for _, u := range order {
		if math.IsInf(potential[u], 1) {
			continue
		}
		for _, a := range g.adj[u] {
			if a.cap <= s.tolerance {
				continue
			}
			if d := potential[u] + a.cost; d < potential[a.to] {
				potential[a.to] = d
			}
		}
	}
	return potential
}

type nodeItem struct {
	node int
	dist float64
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}
