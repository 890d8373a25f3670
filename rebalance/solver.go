package rebalance

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// DefaultMaxIterations bounds the number of nodes explored by the budgeted search.
const DefaultMaxIterations = 1_000_000

// budgetSlack absorbs float rounding when checking Σ w_i x_i ≤ 1.
const budgetSlack = 1e-9

// Problem is the integer least-squares problem
//
//	minimize ‖diag(Weights)·x − Target‖₂  with x_i ≥ 0 integer
//
// and, if Budget is set, Σ Weights_i·x_i ≤ 1.
type Problem struct {
	Weights       []float64 // Weights are all positive.
	Target        []float64
	Budget        bool
	MaxIterations int // MaxIterations caps the budgeted search, 0 means DefaultMaxIterations.
}

// Cost returns the squared residual of x.
func (pb Problem) Cost(x []int64) float64 {
	r := floats.MulTo(make([]float64, len(x)), pb.Weights, toFloats(x))
	floats.Sub(r, pb.Target)
	return floats.Dot(r, r)
}

// Spend returns Σ Weights_i·x_i.
func (pb Problem) Spend(x []int64) float64 {
	return floats.Dot(pb.Weights, toFloats(x))
}

func toFloats(x []int64) []float64 {
	fx := make([]float64, len(x))
	for i, v := range x {
		fx[i] = float64(v)
	}
	return fx
}

// Solver solves integer least-squares problems.
type Solver interface {
	Solve(ctx context.Context, pb Problem) ([]int64, error)
}

// LeastSquares is the default Solver.
//
// Without budget the objective is separable, so rounding each coordinate of
// the continuous optimum to its best neighbour is exact. With a budget it
// runs a depth-first branch and bound over the floor/ceil neighbourhood of
// the continuous optimum, bounded by MaxIterations and the context deadline.
type LeastSquares struct{}

// Solve implements Solver.
func (LeastSquares) Solve(ctx context.Context, pb Problem) ([]int64, error) {
	n := len(pb.Weights)
	if n == 0 {
		return nil, nil
	}
	if len(pb.Target) != n {
		return nil, fmt.Errorf("%w: %d weights for %d targets", ErrInvalidTarget, n, len(pb.Target))
	}

	if floats.Min(pb.Weights) <= 0 {
		return nil, fmt.Errorf("%w: weights must be positive, got %v", ErrInvalidTarget, pb.Weights)
	}

	// continuous optimum of diag(w)·x = t.
	opt := floats.DivTo(make([]float64, n), pb.Target, pb.Weights)
	if floats.HasNaN(opt) || floats.Max(opt) >= math.MaxInt64 {
		return nil, fmt.Errorf("%w: %v units exceed the integer range", ErrInvalidTarget, floats.Max(opt))
	}

	candidates := make([][]int64, n)
	for i, v := range opt {
		candidates[i] = neighbours(pb, i, v)
	}

	if !pb.Budget {
		x := make([]int64, n)
		for i, c := range candidates {
			x[i] = c[0]
		}
		return x, nil
	}
	return branchAndBound(ctx, pb, candidates)
}

// neighbours returns the non negative integers around v, best first.
func neighbours(pb Problem, i int, v float64) []int64 {
	lo := int64(math.Max(0, math.Floor(v)))
	hi := int64(math.Max(0, math.Ceil(v)))
	res := []int64{lo}
	if hi != lo {
		res = append(res, hi)
	}
	cost := func(x int64) float64 {
		r := pb.Weights[i]*float64(x) - pb.Target[i]
		return r * r
	}
	slices.SortStableFunc(res, func(a, b int64) int {
		switch ca, cb := cost(a), cost(b); {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
		return 0
	})
	return res
}

// search is the state of the budgeted branch and bound.
type search struct {
	ctx        context.Context
	pb         Problem
	candidates [][]int64
	minCost    []float64 // minCost[i] is Σ_{j≥i} of the best cost of j.
	minSpend   []float64 // minSpend[i] is Σ_{j≥i} of the lowest spend of j.

	x          []int64
	best       []int64
	bestCost   float64
	iterations int
	limit      int
	stopped    bool
}

func branchAndBound(ctx context.Context, pb Problem, candidates [][]int64) ([]int64, error) {
	n := len(candidates)
	s := &search{
		ctx:        ctx,
		pb:         pb,
		candidates: candidates,
		minCost:    make([]float64, n+1),
		minSpend:   make([]float64, n+1),
		x:          make([]int64, n),
		bestCost:   math.Inf(1),
		limit:      pb.MaxIterations,
	}
	if s.limit <= 0 {
		s.limit = DefaultMaxIterations
	}
	for i := n - 1; i >= 0; i-- {
		w, t := pb.Weights[i], pb.Target[i]
		best := math.Inf(1)
		lowest := math.Inf(1)
		for _, c := range candidates[i] {
			r := w*float64(c) - t
			best = math.Min(best, r*r)
			lowest = math.Min(lowest, w*float64(c))
		}
		s.minCost[i] = s.minCost[i+1] + best
		s.minSpend[i] = s.minSpend[i+1] + lowest
	}

	s.visit(0, 0, 0)

	if s.best == nil {
		if s.stopped {
			return nil, fmt.Errorf("%w: no feasible solution after %d iterations", ErrSolverTimeout, s.iterations)
		}
		return nil, fmt.Errorf("%w: no feasible solution within budget", ErrInvalidTarget)
	}
	if s.stopped {
		log.Warn().Int("iterations", s.iterations).Float64("cost", s.bestCost).Msg("rebalance search stopped early, using best solution so far")
	} else {
		log.Debug().Int("iterations", s.iterations).Float64("cost", s.bestCost).Msg("rebalance search complete")
	}
	return s.best, nil
}

// visit explores coordinate i, given the cost and spend of coordinates before it.
func (s *search) visit(i int, cost, spend float64) {
	if s.stopped {
		return
	}
	s.iterations++
	if s.iterations > s.limit || (s.iterations%1024 == 0 && s.ctx.Err() != nil) {
		s.stopped = true
		return
	}
	if i == len(s.candidates) {
		if cost < s.bestCost {
			s.bestCost = cost
			s.best = slices.Clone(s.x)
		}
		return
	}
	w, t := s.pb.Weights[i], s.pb.Target[i]
	for _, c := range s.candidates[i] {
		r := w*float64(c) - t
		nextCost := cost + r*r
		nextSpend := spend + w*float64(c)
		if nextCost+s.minCost[i+1] >= s.bestCost {
			continue
		}
		if nextSpend+s.minSpend[i+1] > 1+budgetSlack {
			continue
		}
		s.x[i] = c
		s.visit(i+1, nextCost, nextSpend)
	}
}
