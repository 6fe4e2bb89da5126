// Package milp describes small mixed-integer linear programs and solves them
// with a branch-and-bound search over a dense two-phase simplex.
package milp

import "strings"

// Var is a handle to a variable registered on a Problem.
type Var int

// Term is a single coefficient-variable product.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is an affine expression: a sum of terms plus a constant.
// Expressions are values; every operation returns a new Expr.
type Expr struct {
	Terms []Term
	Const float64
}

// Expr lifts a variable into an expression with coefficient 1.
func (v Var) Expr() Expr {
	return Expr{Terms: []Term{{Var: v, Coef: 1}}}
}

// Times returns coef·v.
func (v Var) Times(coef float64) Expr {
	return Expr{Terms: []Term{{Var: v, Coef: coef}}}
}

// Constant returns an expression with no variables.
func Constant(c float64) Expr {
	return Expr{Const: c}
}

// Sum adds expressions together.
func Sum(exprs ...Expr) Expr {
	var out Expr
	for _, e := range exprs {
		out.Terms = append(out.Terms, e.Terms...)
		out.Const += e.Const
	}
	return out
}

// Add returns e + o.
func (e Expr) Add(o Expr) Expr {
	return Sum(e, o)
}

// Sub returns e - o.
func (e Expr) Sub(o Expr) Expr {
	return Sum(e, o.Scale(-1))
}

// Plus returns e + c.
func (e Expr) Plus(c float64) Expr {
	out := e.clone()
	out.Const += c
	return out
}

// Scale returns k·e.
func (e Expr) Scale(k float64) Expr {
	out := Expr{Terms: make([]Term, len(e.Terms)), Const: e.Const * k}
	for i, t := range e.Terms {
		out.Terms[i] = Term{Var: t.Var, Coef: t.Coef * k}
	}
	return out
}

// Eval evaluates the expression at the given variable values, indexed by Var.
func (e Expr) Eval(values []float64) float64 {
	v := e.Const
	for _, t := range e.Terms {
		v += t.Coef * values[t.Var]
	}
	return v
}

// Coefficients collapses repeated variables into a dense coefficient row of length n.
func (e Expr) Coefficients(n int) []float64 {
	row := make([]float64, n)
	for _, t := range e.Terms {
		row[t.Var] += t.Coef
	}
	return row
}

func (e Expr) clone() Expr {
	return Expr{Terms: append([]Term(nil), e.Terms...), Const: e.Const}
}

// Format renders the expression with variable names from p, for logs and errors.
func (e Expr) Format(p *Problem) string {
	var b strings.Builder
	for i, t := range e.Terms {
		if i > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(formatFloat(t.Coef))
		b.WriteString("*")
		b.WriteString(p.vars[t.Var].Name)
	}
	if e.Const != 0 || len(e.Terms) == 0 {
		if len(e.Terms) > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(formatFloat(e.Const))
	}
	return b.String()
}
