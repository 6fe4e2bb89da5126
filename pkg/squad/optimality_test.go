package squad

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/freeeve/squadplan/pkg/milp"
)

// splits calls fn with every way to spend budget over the three categories that
// keeps each category at or above its floor.
func splits(budget int, floor [3]int, fn func([3]int)) {
	for p := floor[0]; p <= budget; p++ {
		for q := floor[1]; p+q <= budget; q++ {
			w := budget - p - q
			if w < floor[2] {
				break
			}
			fn([3]int{p, q, w})
		}
	}
}

// bestByEnumeration scores every integer allocation of m with the true weakest
// shooter and strongest climber and returns the largest worst margin.
func bestByEnumeration(m *Model) float64 {
	vars := m.Problem.Variables()
	values := make([]float64, len(vars))
	floors := func(vs [3]milp.Var) [3]int {
		return [3]int{int(vars[vs[0]].Lower), int(vars[vs[1]].Lower), int(vars[vs[2]].Lower)}
	}
	set := func(vs [3]milp.Var, a [3]int) {
		for i, v := range vs {
			values[v] = float64(a[i])
		}
	}

	best := math.Inf(-1)
	score := func() {
		w0, w1 := math.Inf(1), math.Inf(-1)
		for _, y := range m.ShootingTerms {
			w0 = math.Min(w0, y.Eval(values))
		}
		for _, y := range m.ObstacleTerms {
			w1 = math.Max(w1, y.Eval(values))
		}
		values[m.W0], values[m.W1] = w0, w1
		worst := math.Inf(1)
		for _, z := range m.checks {
			worst = math.Min(worst, z.Eval(values))
		}
		best = math.Max(best, worst)
	}

	var soldier [][3]int
	if m.HasSoldier {
		splits(m.Config.SoldierBudget, floors(m.Soldier), func(a [3]int) { soldier = append(soldier, a) })
	}
	splits(m.Config.LeaderBudget, floors(m.Leader), func(l [3]int) {
		set(m.Leader, l)
		splits(m.Config.OthersBudget, floors(m.Others), func(o [3]int) {
			set(m.Others, o)
			if !m.HasSoldier {
				score()
				return
			}
			for _, s := range soldier {
				set(m.Soldier, s)
				score()
			}
		})
	})
	return best
}

func TestSolveHazard_MatchesEnumeration(t *testing.T) {
	if testing.Short() {
		t.Skip("enumerates every allocation")
	}
	tests := []struct {
		roles   []string
		level   int
		soldier int
	}{
		{[]string{"Soldier", "Natural Scientist", "Social Scientist"}, 3, 0},
		{[]string{"Soldier", "Natural Scientist", "Social Scientist"}, 8, 0},
		{[]string{"Natural Scientist", "Natural Scientist", "Social Scientist"}, 3, 0},
		{[]string{"Natural Scientist", "Natural Scientist", "Social Scientist"}, 8, 0},
		{[]string{"Soldier", "Soldier", "Soldier"}, 3, 0},
		{[]string{"Soldier", "Soldier", "Soldier"}, 8, 0},
		{[]string{"Soldier", "Natural Scientist", "Social Scientist"}, 3, 3},
		{[]string{"Soldier", "Soldier", "Social Scientist"}, 3, 4},
	}
	for _, tt := range tests {
		for _, hazard := range AllHazards() {
			name := fmt.Sprintf("%v/lvl%d/soldier%d/%s", tt.roles, tt.level, tt.soldier, hazard)
			t.Run(name, func(t *testing.T) {
				req := Request{
					Roles:        tt.roles,
					LeaderLevel:  tt.level,
					OthersLevel:  tt.level,
					SoldierLevel: tt.soldier,
					ShootingPct:  33,
					LibraryPct:   66,
					SuccessTier:  "80%",
				}
				cfg := mustConfig(t, req)
				m, err := Build(cfg, hazard)
				if err != nil {
					t.Fatalf("Build: %v", err)
				}
				want := bestByEnumeration(m)

				res, err := SolveHazard(context.Background(), cfg, hazard, milp.NewBranchAndBound())
				if err != nil {
					t.Fatalf("SolveHazard: %v", err)
				}
				checkInvariants(t, cfg, res)
				if math.Abs(res.Worst-want) > 1e-6 {
					t.Errorf("worst margin = %v, enumeration finds %v", res.Worst, want)
				}
			})
		}
	}
}

func TestSolveHazard_ScenarioEveryHazard(t *testing.T) {
	cfg := mustConfig(t, scenarioRequest())
	for _, hazard := range AllHazards() {
		res, err := SolveHazard(context.Background(), cfg, hazard, milp.NewBranchAndBound())
		if err != nil {
			t.Fatalf("%s: %v", hazard, err)
		}
		checkInvariants(t, cfg, res)
	}
}

func TestSolveHazard_DeadlineBoundsRuntime(t *testing.T) {
	req := scenarioRequest()
	req.SoldierLevel = 40
	cfg := mustConfig(t, req)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := SolveHazard(ctx, cfg, Negotiation, milp.NewBranchAndBound())
	elapsed := time.Since(start)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want success or a deadline failure", err)
	}
	if err != nil && !errors.Is(err, ErrSolverFailure) {
		t.Errorf("deadline error %v is not a solver failure", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("solve ignored its 20ms deadline for %v", elapsed)
	}
}
