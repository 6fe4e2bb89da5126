package milp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestRelax_CancelledContext(t *testing.T) {
	p := NewProblem("cancel", Minimize)
	x := p.AddVar("x", Continuous, 0, 10)
	p.Constrain("floor", x.Expr(), GreaterEq, Constant(2))
	p.SetObjective(x.Expr())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := relax(ctx, p, []float64{0}, []float64{10}, defaultMaxIterations)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestBranchAndBound_IterationLimit(t *testing.T) {
	p := NewProblem("pivots", Maximize)
	x := p.IntVar("x", 0)
	y := p.IntVar("y", 0)
	p.Constrain("weight", Sum(x.Times(6), y.Times(4)), LessEq, Constant(24))
	p.Constrain("volume", Sum(x.Expr(), y.Times(2)), LessEq, Constant(6))
	p.SetObjective(Sum(x.Times(5), y.Times(4)))

	s := NewBranchAndBound()
	s.MaxIterations = 1
	_, err := s.Solve(context.Background(), p)
	if !errors.Is(err, ErrIterationLimit) || !errors.Is(err, ErrRelaxation) {
		t.Fatalf("err = %v, want ErrIterationLimit", err)
	}
}

func TestRelax_FixedAndUpperBoundedVariables(t *testing.T) {
	tests := []struct {
		dir  Direction
		want float64
	}{
		{Minimize, 2},
		{Maximize, 5},
	}
	for _, tt := range tests {
		p := NewProblem("bounds", tt.dir)
		x := p.AddVar("x", Continuous, 2, 2)
		y := p.AddVar("y", Continuous, math.Inf(-1), 5)
		p.Constrain("cover", Sum(x.Expr(), y.Expr()), GreaterEq, Constant(4))
		p.SetObjective(y.Expr())

		sol, err := NewBranchAndBound().Solve(context.Background(), p)
		if err != nil {
			t.Fatalf("solve: %v", err)
		}
		if sol.Status != StatusOptimal {
			t.Fatalf("status = %v, want optimal", sol.Status)
		}
		if math.Abs(sol.Value(y)-tt.want) > eps || math.Abs(sol.Value(x)-2) > eps {
			t.Errorf("direction %d: (x, y) = (%v, %v), want (2, %v)", tt.dir, sol.Value(x), sol.Value(y), tt.want)
		}
	}
}

func TestRelax_RedundantEqualities(t *testing.T) {
	p := NewProblem("redundant", Minimize)
	x := p.AddVar("x", Continuous, 0, math.Inf(1))
	y := p.AddVar("y", Continuous, 0, math.Inf(1))
	p.Constrain("sum", Sum(x.Expr(), y.Expr()), Equal, Constant(3))
	p.Constrain("sum-twice", Sum(x.Times(2), y.Times(2)), Equal, Constant(6))
	p.Constrain("zero", Sum(x.Expr(), x.Times(-1)), Equal, Constant(0))
	p.SetObjective(Sum(x.Times(2), y.Expr()))

	sol, err := NewBranchAndBound().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("status = %v, want optimal", sol.Status)
	}
	if math.Abs(sol.Objective-3) > eps || math.Abs(sol.Value(y)-3) > eps {
		t.Errorf("objective %v at y = %v, want 3 at y = 3", sol.Objective, sol.Value(y))
	}
}

func TestRelax_ConstantRowInfeasible(t *testing.T) {
	p := NewProblem("constant", Minimize)
	x := p.AddVar("x", Integer, 4, 4)
	p.Constrain("cap", x.Expr(), LessEq, Constant(3))
	p.SetObjective(x.Expr())

	sol, err := NewBranchAndBound().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusInfeasible {
		t.Errorf("status = %v, want infeasible", sol.Status)
	}
}

// allocationCase is a two-group budget split scored by the weakest of six
// checks, with a lower-min over shooters and a big-M exact max over climbers.
type allocationCase struct {
	leaderBudget, othersBudget int
	othersFloor                [3]float64
	shoot, climb, library      float64
	mod                        float64
}

const allocationBigM = 10_000

func (c allocationCase) checks(lead, others [3]float64, w0, w1 float64) [6]float64 {
	return [6]float64{
		(w0*c.shoot + 3 - 10) / 1.5,
		(w1*c.climb + 3 - 10*c.mod) / (1.5 * c.mod),
		((others[2]+0.5*lead[2])*c.library + 3 - 10) / 1.5,
		((lead[0]+3*others[0])*c.shoot + 5 - 40) / 4,
		((lead[1]+3*others[1])*c.climb + 5 - 40*c.mod) / (4 * c.mod),
		((lead[2]+3.5*others[2])*c.library + 5 - 40) / 4,
	}
}

func (c allocationCase) build() *Problem {
	p := NewProblem("allocation", Maximize)
	var lead, others [3]Var
	for i := range lead {
		lead[i] = p.IntVar(fmt.Sprintf("l%d", i), 1)
	}
	for i := range others {
		others[i] = p.IntVar(fmt.Sprintf("o%d", i), c.othersFloor[i])
	}
	p.Constrain("lead_budget", Sum(lead[0].Expr(), lead[1].Expr(), lead[2].Expr()), Equal, Constant(float64(c.leaderBudget)))
	p.Constrain("others_budget", Sum(others[0].Expr(), others[1].Expr(), others[2].Expr()), Equal, Constant(float64(c.othersBudget)))

	shooters := []Expr{lead[0].Times(1.5), others[0].Expr().Add(lead[0].Times(0.5))}
	climbers := []Expr{lead[1].Times(1.5), others[1].Expr().Add(lead[1].Times(0.5))}
	w0 := p.FreeVar("w0")
	for _, y := range shooters {
		p.Constrain("w0_le", w0.Expr(), LessEq, y)
	}
	w1 := p.FreeVar("w1")
	var oneHot []Expr
	for i, y := range climbers {
		b := p.BinaryVar(fmt.Sprintf("b%d", i))
		oneHot = append(oneHot, b.Expr())
		p.Constrain("w1_ge", w1.Expr(), GreaterEq, y)
		p.Constrain("w1_cap", w1.Expr(), LessEq, y.Plus(allocationBigM).Add(b.Times(-allocationBigM)))
	}
	p.Constrain("one_hot", Sum(oneHot...), Equal, Constant(1))

	z := []Expr{
		w0.Times(c.shoot).Plus(3 - 10).Scale(1 / 1.5),
		w1.Times(c.climb).Plus(3 - 10*c.mod).Scale(1 / (1.5 * c.mod)),
		others[2].Expr().Add(lead[2].Times(0.5)).Scale(c.library).Plus(3 - 10).Scale(1 / 1.5),
		lead[0].Expr().Add(others[0].Times(3)).Scale(c.shoot).Plus(5 - 40).Scale(1.0 / 4),
		lead[1].Expr().Add(others[1].Times(3)).Scale(c.climb).Plus(5 - 40*c.mod).Scale(1 / (4 * c.mod)),
		lead[2].Expr().Add(others[2].Times(3.5)).Scale(c.library).Plus(5 - 40).Scale(1.0 / 4),
	}
	t := p.FreeVar("t")
	for _, e := range z {
		p.Constrain("t_le", t.Expr(), LessEq, e)
	}
	p.SetObjective(t.Expr())
	return p
}

func (c allocationCase) enumerate() float64 {
	best := math.Inf(-1)
	for l0 := 1; l0 <= c.leaderBudget; l0++ {
		for l1 := 1; l0+l1 < c.leaderBudget; l1++ {
			lead := [3]float64{float64(l0), float64(l1), float64(c.leaderBudget - l0 - l1)}
			for o0 := int(c.othersFloor[0]); o0 <= c.othersBudget; o0++ {
				for o1 := int(c.othersFloor[1]); o0+o1 <= c.othersBudget; o1++ {
					o2 := c.othersBudget - o0 - o1
					if float64(o2) < c.othersFloor[2] {
						break
					}
					others := [3]float64{float64(o0), float64(o1), float64(o2)}
					w0 := math.Min(1.5*lead[0], others[0]+0.5*lead[0])
					w1 := math.Max(1.5*lead[1], others[1]+0.5*lead[1])
					worst := math.Inf(1)
					for _, z := range c.checks(lead, others, w0, w1) {
						worst = math.Min(worst, z)
					}
					best = math.Max(best, worst)
				}
			}
		}
	}
	return best
}

func TestBranchAndBound_AllocationMatchesEnumeration(t *testing.T) {
	tests := []allocationCase{
		{12, 11, [3]float64{1, 1, 2}, 1.33, 1, 1.66, 1},
		{12, 11, [3]float64{0, 0, 2}, 1, 1, 1, 0.9},
		{22, 21, [3]float64{1, 1, 0}, 1, 1.2, 1, 1.25},
		{22, 21, [3]float64{1, 1, 2}, 2, 1, 1.33, 1},
		{40, 39, [3]float64{1, 1, 2}, 1, 1, 1, 1},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d-%d-%v-mod%v", tc.leaderBudget, tc.othersBudget, tc.othersFloor, tc.mod), func(t *testing.T) {
			sol, err := NewBranchAndBound().Solve(context.Background(), tc.build())
			if err != nil {
				t.Fatalf("solve: %v", err)
			}
			if sol.Status != StatusOptimal {
				t.Fatalf("status = %v, want optimal", sol.Status)
			}
			if want := tc.enumerate(); math.Abs(sol.Objective-want) > eps {
				t.Errorf("objective = %v, enumeration finds %v", sol.Objective, want)
			}
		})
	}
}
