package squad

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/squadplan/pkg/milp"
)

const (
	// integralityTol is how far a solver value may sit from an integer before the
	// result is rejected instead of rounded.
	integralityTol = 1e-6
	// floorTol absorbs float noise like 4.9999999 before rounding a margin down.
	floorTol = 1e-9
)

// Allocation is how one actor group splits its skill budget.
type Allocation struct {
	Power     int `json:"power"`
	Athletics int `json:"athletics"`
	Wit       int `json:"wit"`
}

// Total returns the number of points allocated.
func (a Allocation) Total() int {
	return a.Power + a.Athletics + a.Wit
}

func (a Allocation) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Power, a.Athletics, a.Wit)
}

// Result is the plan for one hazard approach.
type Result struct {
	Hazard HazardApproach `json:"hazard"`
	// Guaranteed is the worst margin rounded down: the level every check clears.
	Guaranteed int `json:"guaranteed"`
	// Worst is the unrounded worst margin; the search compares on it.
	Worst        float64     `json:"worst"`
	WeakestCheck string      `json:"weakest_check"`
	Leader       Allocation  `json:"leader"`
	Soldier      *Allocation `json:"soldier,omitempty"`
	Others       Allocation  `json:"others"`
	Checks       Checks      `json:"checks"`
	Nodes        int         `json:"nodes"`
}

// Extract reads an optimal solution back into a Result. Margins are recomputed
// from the rounded allocations, with the true weakest shooter and strongest
// climber, so the reported numbers always match the plan being recommended.
func Extract(m *Model, sol *milp.Solution) (*Result, error) {
	if sol == nil || sol.Status != milp.StatusOptimal {
		return nil, fmt.Errorf("%w: extract from non-optimal solution", ErrSolverFailure)
	}
	values := append([]float64(nil), sol.Values...)
	for i, v := range m.Problem.Variables() {
		if v.Domain == milp.Continuous {
			continue
		}
		r := math.Round(values[i])
		if math.Abs(values[i]-r) > integralityTol {
			return nil, fmt.Errorf("%w: %s = %v is not integral", ErrSolverFailure, v.Name, values[i])
		}
		values[i] = r
	}

	w0 := math.Inf(1)
	for _, y := range m.ShootingTerms {
		w0 = math.Min(w0, y.Eval(values))
	}
	w1 := math.Inf(-1)
	for _, y := range m.ObstacleTerms {
		w1 = math.Max(w1, y.Eval(values))
	}

	var z [NumChecks]float64
	for i, e := range m.checkExprs(milp.Constant(w0), milp.Constant(w1)) {
		z[i] = e.Eval(values)
	}
	checks := checksFromValues(z)
	worst, weakest := checks.Worst()
	if m.Config.FloorMargins {
		for i := range z {
			z[i] = floorMargin(z[i])
		}
		checks = checksFromValues(z)
	}

	if solverT := values[m.T]; math.Abs(solverT-worst) > 1e-4 {
		log.Debug().Str("hazard", string(m.Hazard)).Float64("solverT", solverT).Float64("recomputed", worst).Msg("Solver margin differs from recomputed margin")
	}

	res := &Result{
		Hazard:       m.Hazard,
		Guaranteed:   int(floorMargin(worst)),
		Worst:        worst,
		WeakestCheck: CheckNames[weakest],
		Leader:       allocation(m.Leader, values),
		Others:       allocation(m.Others, values),
		Checks:       checks,
		Nodes:        sol.Nodes,
	}
	if m.HasSoldier {
		s := allocation(m.Soldier, values)
		res.Soldier = &s
	}
	return res, nil
}

func allocation(vs [3]milp.Var, values []float64) Allocation {
	return Allocation{
		Power:     int(values[vs[Power]]),
		Athletics: int(values[vs[Athletics]]),
		Wit:       int(values[vs[Wit]]),
	}
}

func floorMargin(v float64) float64 {
	return math.Floor(v + floorTol)
}
