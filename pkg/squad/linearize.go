package squad

import (
	"fmt"

	"github.com/freeeve/squadplan/pkg/milp"
)

// BigM bounds every capability term in the exact-max construction. Skill totals
// stay in the low hundreds, so this is never reached by a feasible term.
const BigM = 10_000

// LowerMin returns a variable w with w <= y_i for every term. It only equals the
// minimum when the objective pushes w upward, which the maximin objective does.
func LowerMin(p *milp.Problem, name string, terms []milp.Expr) milp.Var {
	w := p.FreeVar(name)
	for i, y := range terms {
		p.Constrain(fmt.Sprintf("%s_le_%d", name, i), w.Expr(), milp.LessEq, y)
	}
	return w
}

// ExactMax returns a variable w pinned to max(y_i) with one-hot big-M indicators:
//
//	w >= y_i              for every i
//	w <= y_i + M(1 - b_i) for every i
//	sum b_i = 1
//
// The selected indicator caps w at its own term while the lower bounds keep w at
// or above every other term, so w cannot drift above the true maximum.
func ExactMax(p *milp.Problem, name string, terms []milp.Expr, bigM float64) (milp.Var, []milp.Var) {
	w := p.FreeVar(name)
	indicators := make([]milp.Var, len(terms))
	oneHot := make([]milp.Expr, len(terms))
	for i, y := range terms {
		b := p.BinaryVar(fmt.Sprintf("%s_b%d", name, i))
		indicators[i] = b
		oneHot[i] = b.Expr()
		p.Constrain(fmt.Sprintf("%s_ge_%d", name, i), w.Expr(), milp.GreaterEq, y)
		p.Constrain(fmt.Sprintf("%s_cap_%d", name, i), w.Expr(), milp.LessEq, y.Plus(bigM).Add(b.Times(-bigM)))
	}
	p.Constrain(name+"_one_hot", milp.Sum(oneHot...), milp.Equal, milp.Constant(1))
	return w, indicators
}
