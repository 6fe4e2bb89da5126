package milp

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
)

const (
	defaultMaxNodes       = 50000
	defaultMaxIterations  = 10000
	defaultGap            = 1e-7
	defaultIntegralityTol = 1e-6
)

// BranchAndBound is a best-first branch-and-bound MILP solver. Node order is
// fully deterministic: ties on the bound are broken by creation order, and the
// branching variable is the most fractional one with the lowest index.
type BranchAndBound struct {
	// MaxNodes caps the number of LP relaxations solved; 0 means the default.
	MaxNodes int
	// Gap is the absolute objective improvement a node must promise to be explored.
	Gap float64
	// IntegralityTol is how far from an integer a value may be and still count as integral.
	IntegralityTol float64
	// MaxIterations caps the simplex pivots of one relaxation; 0 means the default.
	MaxIterations int
}

// NewBranchAndBound returns a solver with default limits.
func NewBranchAndBound() *BranchAndBound {
	return &BranchAndBound{
		MaxNodes:       defaultMaxNodes,
		Gap:            defaultGap,
		IntegralityTol: defaultIntegralityTol,
		MaxIterations:  defaultMaxIterations,
	}
}

type bbNode struct {
	lower, upper []float64
	bound        float64 // parent relaxation value, minimization form
	seq          int
}

type nodeQueue []*bbNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].bound != q[j].bound {
		return q[i].bound < q[j].bound
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(*bbNode)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// Solve runs branch-and-bound on p. The context is checked before every node and
// every simplex pivot, so a caller-imposed deadline stops the search with the
// context's error.
func (s *BranchAndBound) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	maxNodes := s.MaxNodes
	if maxNodes <= 0 {
		maxNodes = defaultMaxNodes
	}
	gap := s.Gap
	if gap <= 0 {
		gap = defaultGap
	}
	intTol := s.IntegralityTol
	if intTol <= 0 {
		intTol = defaultIntegralityTol
	}
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	n := len(p.vars)
	root := &bbNode{lower: make([]float64, n), upper: make([]float64, n), bound: math.Inf(-1)}
	for i, v := range p.vars {
		root.lower[i], root.upper[i] = v.Lower, v.Upper
		if v.Domain != Continuous {
			root.lower[i] = math.Ceil(v.Lower - intTol)
			root.upper[i] = math.Floor(v.Upper + intTol)
		}
	}

	queue := &nodeQueue{root}
	seq := 1
	incumbent := math.Inf(1)
	var best []float64
	nodes := 0

	for queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("branch and bound after %d nodes: %w", nodes, err)
		}
		nd := heap.Pop(queue).(*bbNode)
		if nd.bound >= incumbent-gap {
			continue
		}
		if nodes >= maxNodes {
			return nil, fmt.Errorf("%s: %w (%d)", p.Name, ErrNodeLimit, maxNodes)
		}
		nodes++

		r, err := relax(ctx, p, nd.lower, nd.upper, maxIter)
		if err != nil {
			return nil, fmt.Errorf("%s node %d: %w", p.Name, nodes, err)
		}
		switch r.status {
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			if nodes == 1 {
				return &Solution{Status: StatusUnbounded, Nodes: nodes}, nil
			}
			continue
		}
		if r.value >= incumbent-gap {
			continue
		}

		branch, frac := -1, 0.0
		for i, v := range p.vars {
			if v.Domain == Continuous {
				continue
			}
			f := r.x[i] - math.Floor(r.x[i])
			dist := math.Min(f, 1-f)
			if dist > intTol && dist > frac {
				branch, frac = i, dist
			}
		}
		if branch < 0 {
			incumbent = r.value
			best = r.x
			log.Debug().Str("problem", p.Name).Int("node", nodes).Float64("objective", p.objective.Eval(best)).Msg("New incumbent")
			continue
		}

		down := &bbNode{lower: clone(nd.lower), upper: clone(nd.upper), bound: r.value}
		down.upper[branch] = math.Floor(r.x[branch])
		up := &bbNode{lower: clone(nd.lower), upper: clone(nd.upper), bound: r.value}
		up.lower[branch] = math.Ceil(r.x[branch])

		first, second := down, up
		if r.x[branch]-math.Floor(r.x[branch]) >= 0.5 {
			first, second = up, down
		}
		first.seq, second.seq = seq, seq+1
		seq += 2
		heap.Push(queue, first)
		heap.Push(queue, second)
	}

	if best == nil {
		return &Solution{Status: StatusInfeasible, Nodes: nodes}, nil
	}
	return &Solution{
		Status:    StatusOptimal,
		Objective: p.objective.Eval(best),
		Values:    best,
		Nodes:     nodes,
	}, nil
}

func clone(s []float64) []float64 {
	return append([]float64(nil), s...)
}
