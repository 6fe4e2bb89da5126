package milp

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	costTol   = 1e-9  // reduced costs above -costTol count as non-improving
	pivotTol  = 1e-7  // smallest usable pivot element
	zeroTol   = 1e-11 // entries this small after a pivot are rounding noise
	ratioTol  = 1e-12 // ratios closer than this tie and fall to Bland's rule
	feasTol   = 1e-7  // slack allowed on bounds and constant rows
	phase1Tol = 1e-7  // residual artificial mass still counted as feasible
)

// relaxation is the solved LP relaxation of one branch-and-bound node.
// value is in minimization form and excludes the objective constant.
type relaxation struct {
	status Status
	value  float64
	x      []float64
}

type columnKind int

const (
	fixedColumn     columnKind = iota // x = offset, no column
	shiftedColumn                     // x = offset + y
	reflectedColumn                   // x = offset - y
	splitColumn                       // x = y+ - y-, two columns
)

// column maps one problem variable onto the non-negative standard-form columns.
type column struct {
	kind   columnKind
	index  int
	offset float64
}

type lpRow struct {
	coef  []float64
	sense Sense
	rhs   float64
}

// relax solves the continuous relaxation of p under the given per-variable bounds.
// Bounded variables are shifted onto their lower bound, so only variables with no
// finite bound are split in two and only finite upper bounds add rows. The context
// is checked before every pivot and maxIter caps the pivots of both phases.
func relax(ctx context.Context, p *Problem, lower, upper []float64, maxIter int) (relaxation, error) {
	n := len(p.vars)
	cols := make([]column, n)
	width := 0
	for i := 0; i < n; i++ {
		lo, up := lower[i], upper[i]
		switch {
		case lo > up+feasTol:
			return relaxation{status: StatusInfeasible}, nil
		case !math.IsInf(lo, -1) && up-lo <= feasTol:
			cols[i] = column{kind: fixedColumn, offset: lo}
		case !math.IsInf(lo, -1):
			cols[i] = column{kind: shiftedColumn, index: width, offset: lo}
			width++
		case !math.IsInf(up, 1):
			cols[i] = column{kind: reflectedColumn, index: width, offset: up}
			width++
		default:
			cols[i] = column{kind: splitColumn, index: width}
			width += 2
		}
	}

	var rows []lpRow
	for _, con := range p.constraints {
		coef, rhs := project(cols, con.Expr, width)
		if isZero(coef) {
			if !constantHolds(con.Sense, rhs) {
				return relaxation{status: StatusInfeasible}, nil
			}
			continue
		}
		rows = append(rows, lpRow{coef: coef, sense: con.Sense, rhs: rhs})
	}
	for i, c := range cols {
		if c.kind == shiftedColumn && !math.IsInf(upper[i], 1) {
			coef := make([]float64, width)
			coef[c.index] = 1
			rows = append(rows, lpRow{coef: coef, sense: LessEq, rhs: upper[i] - lower[i]})
		}
	}

	sign := 1.0
	if p.Direction == Maximize {
		sign = -1
	}
	cost, _ := project(cols, p.objective.Scale(sign), width)

	tb := newTableau(rows, width)
	budget := maxIter
	if tb.artStart < tb.width {
		phase1 := make([]float64, tb.width)
		for j := tb.artStart; j < tb.width; j++ {
			phase1[j] = 1
		}
		tb.price(phase1)
		if _, err := tb.run(ctx, tb.width, &budget); err != nil {
			return relaxation{}, err
		}
		if -tb.obj[tb.width] > phase1Tol*(1+tb.rhsScale) {
			return relaxation{status: StatusInfeasible}, nil
		}
		tb.dropArtificials()
	}

	phase2 := make([]float64, tb.width)
	copy(phase2, cost)
	tb.price(phase2)
	unbounded, err := tb.run(ctx, tb.artStart, &budget)
	if err != nil {
		return relaxation{}, err
	}
	if unbounded {
		return relaxation{status: StatusUnbounded}, nil
	}

	y := make([]float64, width)
	for i, b := range tb.basis {
		if b < width {
			y[b] = math.Max(0, tb.rows[i][tb.width])
		}
	}
	x := make([]float64, n)
	for i, c := range cols {
		switch c.kind {
		case fixedColumn:
			x[i] = c.offset
		case shiftedColumn:
			x[i] = c.offset + y[c.index]
		case reflectedColumn:
			x[i] = c.offset - y[c.index]
		case splitColumn:
			x[i] = y[c.index] - y[c.index+1]
		}
	}
	obj := p.objective.Scale(sign)
	obj.Const = 0
	return relaxation{status: StatusOptimal, value: obj.Eval(x), x: x}, nil
}

// project rewrites e over the standard-form columns as coef·y and moves every
// constant to the right-hand side, so that e (sense) 0 becomes coef·y (sense) rhs.
func project(cols []column, e Expr, width int) ([]float64, float64) {
	coef := make([]float64, width)
	rhs := -e.Const
	for _, t := range e.Terms {
		c := cols[t.Var]
		switch c.kind {
		case fixedColumn:
			rhs -= t.Coef * c.offset
		case shiftedColumn:
			coef[c.index] += t.Coef
			rhs -= t.Coef * c.offset
		case reflectedColumn:
			coef[c.index] -= t.Coef
			rhs -= t.Coef * c.offset
		case splitColumn:
			coef[c.index] += t.Coef
			coef[c.index+1] -= t.Coef
		}
	}
	return coef, rhs
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// constantHolds checks 0 (sense) rhs.
func constantHolds(sense Sense, rhs float64) bool {
	switch sense {
	case LessEq:
		return rhs >= -feasTol
	case GreaterEq:
		return rhs <= feasTol
	default:
		return math.Abs(rhs) <= feasTol
	}
}

// tableau is a dense simplex tableau in standard form. Columns are the structural
// columns, then one slack per inequality, then the artificials.
type tableau struct {
	rows     [][]float64 // constraint rows; the last entry is the right-hand side
	obj      []float64   // reduced costs; the last entry is minus the objective value
	basis    []int
	width    int // columns, excluding the right-hand side
	artStart int
	rhsScale float64
}

func newTableau(rows []lpRow, structural int) *tableau {
	slacks := 0
	for _, r := range rows {
		if r.sense != Equal {
			slacks++
		}
	}
	// A row starts with its slack basic when the slack keeps a +1 coefficient
	// after the right-hand side is made non-negative; every other row needs an
	// artificial.
	needsArt := make([]bool, len(rows))
	arts := 0
	for i, r := range rows {
		slackCoef := 0.0
		switch r.sense {
		case LessEq:
			slackCoef = 1
		case GreaterEq:
			slackCoef = -1
		}
		if r.rhs < 0 {
			slackCoef = -slackCoef
		}
		if slackCoef != 1 {
			needsArt[i] = true
			arts++
		}
	}

	tb := &tableau{
		width:    structural + slacks + arts,
		artStart: structural + slacks,
		basis:    make([]int, len(rows)),
	}
	tb.obj = make([]float64, tb.width+1)
	slack, art := structural, tb.artStart
	for i, r := range rows {
		row := make([]float64, tb.width+1)
		copy(row, r.coef)
		row[tb.width] = r.rhs
		switch r.sense {
		case LessEq:
			row[slack] = 1
		case GreaterEq:
			row[slack] = -1
		}
		if r.rhs < 0 {
			floats.Scale(-1, row)
		}
		if r.sense != Equal {
			tb.basis[i] = slack
			slack++
		}
		if needsArt[i] {
			row[art] = 1
			tb.basis[i] = art
			art++
		}
		tb.rhsScale = math.Max(tb.rhsScale, math.Abs(row[tb.width]))
		tb.rows = append(tb.rows, row)
	}
	return tb
}

// price loads cost into the objective row and eliminates the basic columns.
func (tb *tableau) price(cost []float64) {
	copy(tb.obj, cost)
	tb.obj[tb.width] = 0
	for i, b := range tb.basis {
		if cb := cost[b]; cb != 0 {
			floats.AddScaled(tb.obj, -cb, tb.rows[i])
		}
	}
}

func (tb *tableau) pivot(r, c int) {
	row := tb.rows[r]
	floats.Scale(1/row[c], row)
	row[c] = 1
	for i, other := range tb.rows {
		if i == r {
			continue
		}
		if f := other[c]; f != 0 {
			floats.AddScaled(other, -f, row)
			other[c] = 0
			snap(other)
			if v := other[tb.width]; v < 0 && v > -feasTol {
				other[tb.width] = 0
			}
		}
	}
	if f := tb.obj[c]; f != 0 {
		floats.AddScaled(tb.obj, -f, row)
		tb.obj[c] = 0
	}
	tb.basis[r] = c
}

func snap(row []float64) {
	for j, v := range row {
		if math.Abs(v) < zeroTol {
			row[j] = 0
		}
	}
}

// run pivots with Bland's rule, entering only columns below limit, until no
// column improves the objective. It reports whether the objective is unbounded.
func (tb *tableau) run(ctx context.Context, limit int, budget *int) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		enter := -1
		for j := 0; j < limit; j++ {
			if tb.obj[j] < -costTol {
				enter = j
				break
			}
		}
		if enter < 0 {
			return false, nil
		}
		if *budget <= 0 {
			return false, fmt.Errorf("%w: %w", ErrRelaxation, ErrIterationLimit)
		}
		*budget--

		leave, best := -1, math.Inf(1)
		for i, row := range tb.rows {
			a := row[enter]
			if a <= pivotTol {
				continue
			}
			ratio := row[tb.width] / a
			switch {
			case leave < 0 || ratio < best-ratioTol:
				leave, best = i, ratio
			case ratio <= best+ratioTol && tb.basis[i] < tb.basis[leave]:
				leave, best = i, math.Min(best, ratio)
			}
		}
		if leave < 0 {
			return true, nil
		}
		tb.pivot(leave, enter)
	}
}

// dropArtificials pivots every artificial still basic after phase one out of
// the basis. Rows where that is impossible are redundant and keep their
// artificial at zero; phase two never lets artificials re-enter.
func (tb *tableau) dropArtificials() {
	for i, b := range tb.basis {
		if b < tb.artStart {
			continue
		}
		row := tb.rows[i]
		best, bestAbs := -1, pivotTol
		for j := 0; j < tb.artStart; j++ {
			if a := math.Abs(row[j]); a > bestAbs {
				best, bestAbs = j, a
			}
		}
		if best >= 0 {
			tb.pivot(i, best)
		}
	}
}
