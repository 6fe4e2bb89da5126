package milp

import (
	"context"
	"errors"
	"math"
	"testing"
)

const eps = 1e-6

func TestExpr_EvalAndCoefficients(t *testing.T) {
	p := NewProblem("expr", Minimize)
	x := p.FreeVar("x")
	y := p.FreeVar("y")

	e := Sum(x.Times(2), y.Expr(), x.Times(0.5)).Plus(3).Scale(2)
	values := []float64{1, 4}
	if got := e.Eval(values); math.Abs(got-19) > eps {
		t.Errorf("Eval = %v, want 19", got)
	}
	row := e.Coefficients(2)
	if row[0] != 5 || row[1] != 2 {
		t.Errorf("Coefficients = %v, want [5 2]", row)
	}
	if got := e.Sub(e).Eval(values); math.Abs(got) > eps {
		t.Errorf("e - e = %v, want 0", got)
	}
	if got := Constant(7).Format(p); got != "7" {
		t.Errorf("Format(constant) = %q", got)
	}
}

func TestBranchAndBound_IntegerKnapsack(t *testing.T) {
	p := NewProblem("knapsack", Maximize)
	x := p.IntVar("x", 0)
	y := p.IntVar("y", 0)
	p.Constrain("weight", Sum(x.Times(6), y.Times(4)), LessEq, Constant(24))
	p.Constrain("volume", Sum(x.Expr(), y.Times(2)), LessEq, Constant(6))
	p.SetObjective(Sum(x.Times(5), y.Times(4)))

	sol, err := NewBranchAndBound().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("status = %v, want optimal", sol.Status)
	}
	if math.Abs(sol.Objective-20) > eps {
		t.Errorf("objective = %v, want 20", sol.Objective)
	}
	if math.Abs(sol.Value(x)-4) > eps || math.Abs(sol.Value(y)) > eps {
		t.Errorf("solution = (%v, %v), want (4, 0)", sol.Value(x), sol.Value(y))
	}
	if sol.Nodes < 2 {
		t.Errorf("expected branching, solved in %d nodes", sol.Nodes)
	}
}

func TestBranchAndBound_PureLP(t *testing.T) {
	p := NewProblem("lp", Minimize)
	x := p.AddVar("x", Continuous, 1, math.Inf(1))
	y := p.AddVar("y", Continuous, 0, 10)
	p.Constrain("cover", Sum(x.Expr(), y.Expr()), GreaterEq, Constant(4.5))
	p.SetObjective(Sum(x.Times(2), y.Expr()).Plus(1))

	sol, err := NewBranchAndBound().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Nodes != 1 {
		t.Errorf("pure LP took %d nodes, want 1", sol.Nodes)
	}
	if math.Abs(sol.Objective-6.5) > eps {
		t.Errorf("objective = %v, want 6.5", sol.Objective)
	}
}

func TestBranchAndBound_Infeasible(t *testing.T) {
	p := NewProblem("infeasible", Maximize)
	a := p.IntVar("a", 1)
	b := p.IntVar("b", 1)
	c := p.IntVar("c", 1)
	p.Constrain("budget", Sum(a.Expr(), b.Expr(), c.Expr()), Equal, Constant(2))
	p.SetObjective(a.Expr())

	sol, err := NewBranchAndBound().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusInfeasible {
		t.Fatalf("status = %v, want infeasible", sol.Status)
	}
	if sol.Values != nil {
		t.Error("infeasible solution should carry no values")
	}
}

func TestBranchAndBound_Unbounded(t *testing.T) {
	p := NewProblem("unbounded", Maximize)
	x := p.AddVar("x", Continuous, 0, math.Inf(1))
	p.Constrain("floor", x.Expr(), GreaterEq, Constant(1))
	p.SetObjective(x.Expr())

	sol, err := NewBranchAndBound().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusUnbounded {
		t.Fatalf("status = %v, want unbounded", sol.Status)
	}
}

func TestBranchAndBound_BinaryMaxPinsToLargest(t *testing.T) {
	// w >= y_i with a one-hot upper bound must land on max(y_i) even when the
	// objective pushes w upward.
	p := NewProblem("max", Maximize)
	ys := []float64{3, 11, 7}
	w := p.FreeVar("w")
	var sel []Expr
	for i, y := range ys {
		b := p.BinaryVar("b" + string(rune('0'+i)))
		sel = append(sel, b.Expr())
		p.Constrain("lower", w.Expr(), GreaterEq, Constant(y))
		p.Constrain("upper", w.Expr(), LessEq, Sum(Constant(y+1000), b.Times(-1000)))
	}
	p.Constrain("one-hot", Sum(sel...), Equal, Constant(1))
	p.SetObjective(w.Expr())

	sol, err := NewBranchAndBound().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("status = %v, want optimal", sol.Status)
	}
	if math.Abs(sol.Value(w)-11) > eps {
		t.Errorf("w = %v, want 11", sol.Value(w))
	}
}

func TestBranchAndBound_ContextCancelled(t *testing.T) {
	p := NewProblem("cancel", Maximize)
	x := p.IntVar("x", 0)
	p.Constrain("cap", x.Expr(), LessEq, Constant(3))
	p.SetObjective(x.Expr())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBranchAndBound().Solve(ctx, p)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestBranchAndBound_NodeLimit(t *testing.T) {
	p := NewProblem("limit", Maximize)
	x := p.IntVar("x", 0)
	y := p.IntVar("y", 0)
	p.Constrain("weight", Sum(x.Times(6), y.Times(4)), LessEq, Constant(24))
	p.Constrain("volume", Sum(x.Expr(), y.Times(2)), LessEq, Constant(6))
	p.SetObjective(Sum(x.Times(5), y.Times(4)))

	s := NewBranchAndBound()
	s.MaxNodes = 1
	_, err := s.Solve(context.Background(), p)
	if !errors.Is(err, ErrNodeLimit) {
		t.Fatalf("err = %v, want ErrNodeLimit", err)
	}
}

func TestProblem_Validate(t *testing.T) {
	if err := NewProblem("empty", Minimize).Validate(); !errors.Is(err, ErrEmptyProblem) {
		t.Errorf("empty problem: err = %v", err)
	}

	p := NewProblem("bounds", Minimize)
	p.AddVar("x", Integer, 5, 2)
	if err := p.Validate(); !errors.Is(err, ErrBadBounds) {
		t.Errorf("inverted bounds: err = %v", err)
	}

	q := NewProblem("unknown", Minimize)
	q.FreeVar("x")
	q.SetObjective(Var(3).Expr())
	if err := q.Validate(); !errors.Is(err, ErrUnknownVar) {
		t.Errorf("unknown var: err = %v", err)
	}
}

func TestBinaryVar_ClampsBounds(t *testing.T) {
	p := NewProblem("binary", Minimize)
	b := p.AddVar("b", Binary, -4, 9)
	v := p.Variables()[b]
	if v.Lower != 0 || v.Upper != 1 {
		t.Errorf("binary bounds = [%v, %v], want [0, 1]", v.Lower, v.Upper)
	}
}
