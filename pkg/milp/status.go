package milp

import (
	"context"
	"errors"
	"math"
)

var (
	ErrEmptyProblem = errors.New("problem has no variables")
	ErrBadBounds    = errors.New("invalid variable bounds")
	ErrUnknownVar   = errors.New("expression references unknown variable")
	ErrNodeLimit    = errors.New("branch-and-bound node limit reached")
	ErrRelaxation   = errors.New("lp relaxation failed")

	// ErrIterationLimit wraps ErrRelaxation when one relaxation runs out of pivots.
	ErrIterationLimit = errors.New("simplex iteration limit reached")
)

// Status is the outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "unknown"
	}
}

// Solution is the result of a solve. Values is only set when Status is optimal.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
}

// Value returns the solved value of v, or NaN when the solution carries no values.
func (s *Solution) Value(v Var) float64 {
	if int(v) < 0 || int(v) >= len(s.Values) {
		return math.NaN()
	}
	return s.Values[v]
}

// Solver solves a Problem. Infeasibility and unboundedness are reported through
// Solution.Status; a non-nil error means the engine itself failed.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
