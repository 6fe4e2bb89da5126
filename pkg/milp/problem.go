package milp

import (
	"fmt"
	"math"
	"strconv"
)

// Domain is the value domain of a variable.
type Domain int

const (
	Continuous Domain = iota
	Integer
	Binary
)

func (d Domain) String() string {
	switch d {
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return "continuous"
	}
}

// Sense is the relation of a linear constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	default:
		return "<="
	}
}

// Direction is the optimization direction of the objective.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// Variable describes one decision variable. Infinite bounds mean unbounded.
type Variable struct {
	Name   string
	Domain Domain
	Lower  float64
	Upper  float64
}

// Constraint is the normalized form Expr (sense) 0.
type Constraint struct {
	Name  string
	Expr  Expr
	Sense Sense
}

// Problem is a MILP under construction.
type Problem struct {
	Name      string
	Direction Direction

	vars        []Variable
	constraints []Constraint
	objective   Expr
}

// NewProblem creates an empty problem.
func NewProblem(name string, dir Direction) *Problem {
	return &Problem{Name: name, Direction: dir}
}

// AddVar registers a variable and returns its handle.
func (p *Problem) AddVar(name string, d Domain, lower, upper float64) Var {
	if d == Binary {
		lower, upper = math.Max(lower, 0), math.Min(upper, 1)
	}
	p.vars = append(p.vars, Variable{Name: name, Domain: d, Lower: lower, Upper: upper})
	return Var(len(p.vars) - 1)
}

// IntVar registers an integer variable bounded below.
func (p *Problem) IntVar(name string, lower float64) Var {
	return p.AddVar(name, Integer, lower, math.Inf(1))
}

// FreeVar registers an unbounded continuous variable.
func (p *Problem) FreeVar(name string) Var {
	return p.AddVar(name, Continuous, math.Inf(-1), math.Inf(1))
}

// BinaryVar registers a 0/1 variable.
func (p *Problem) BinaryVar(name string) Var {
	return p.AddVar(name, Binary, 0, 1)
}

// Constrain adds lhs (sense) rhs.
func (p *Problem) Constrain(name string, lhs Expr, sense Sense, rhs Expr) {
	p.constraints = append(p.constraints, Constraint{Name: name, Expr: lhs.Sub(rhs), Sense: sense})
}

// SetObjective replaces the objective expression.
func (p *Problem) SetObjective(e Expr) {
	p.objective = e
}

// Objective returns the objective expression.
func (p *Problem) Objective() Expr {
	return p.objective
}

// Variables returns the registered variables in handle order.
func (p *Problem) Variables() []Variable {
	return p.vars
}

// Constraints returns the registered constraints in insertion order.
func (p *Problem) Constraints() []Constraint {
	return p.constraints
}

// NumVars returns the number of registered variables.
func (p *Problem) NumVars() int {
	return len(p.vars)
}

// Validate checks that the problem is well formed before solving.
func (p *Problem) Validate() error {
	if len(p.vars) == 0 {
		return fmt.Errorf("problem %q: %w", p.Name, ErrEmptyProblem)
	}
	for i, v := range p.vars {
		if v.Lower > v.Upper {
			return fmt.Errorf("variable %s: lower bound %v above upper bound %v: %w", v.Name, v.Lower, v.Upper, ErrBadBounds)
		}
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) {
			return fmt.Errorf("variable %d: %w", i, ErrBadBounds)
		}
	}
	check := func(e Expr, where string) error {
		for _, t := range e.Terms {
			if int(t.Var) < 0 || int(t.Var) >= len(p.vars) {
				return fmt.Errorf("%s: %w", where, ErrUnknownVar)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("%s: non-finite coefficient on %s", where, p.vars[t.Var].Name)
			}
		}
		return nil
	}
	for _, c := range p.constraints {
		if err := check(c.Expr, "constraint "+c.Name); err != nil {
			return err
		}
	}
	return check(p.objective, "objective")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
