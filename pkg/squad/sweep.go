package squad

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// DefaultScorecardGrid is the environment bonus sweep used by Scorecard:
// multipliers of 1, 1.33, 1.66 and 2.
var DefaultScorecardGrid = []int{0, 33, 66, 100}

// Ranking is one role combination and its best plan.
type Ranking struct {
	Roles  [TeamSize]Role `json:"roles"`
	Result *Result        `json:"result"`
}

// Tally counts how often a role combination won a scorecard sweep.
type Tally struct {
	Roles [TeamSize]Role `json:"roles"`
	Wins  int            `json:"wins"`
}

// RoleCombinations returns every unordered role assignment of the three slots,
// each sorted in role order, so a soldier always lands in slot 0.
func RoleCombinations() [][TeamSize]Role {
	all := AllRoles()
	var out [][TeamSize]Role
	for i := range all {
		for j := i; j < len(all); j++ {
			for k := j; k < len(all); k++ {
				out = append(out, [TeamSize]Role{all[i], all[j], all[k]})
			}
		}
	}
	return out
}

// RankRoles plans every role combination for the base request's levels and
// environment, best guaranteed margin first. The base request's roles are
// ignored; its soldier level only applies to combinations with a soldier.
// Infeasible combinations are left out.
func RankRoles(ctx context.Context, base Request, opts Options) ([]Ranking, error) {
	var out []Ranking
	for _, combo := range RoleCombinations() {
		req := base
		req.Roles = make([]string, len(combo))
		for i, r := range combo {
			req.Roles[i] = r.String()
		}
		if combo[0] != Soldier {
			req.SoldierLevel = 0
		}
		cfg, err := req.Config()
		if err != nil {
			return nil, err
		}
		res, err := Search(ctx, cfg, opts)
		if errors.Is(err, ErrInfeasible) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("rank %v: %w", combo, err)
		}
		out = append(out, Ranking{Roles: combo, Result: res})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("every role combination: %w", ErrInfeasible)
	}
	slices.SortStableFunc(out, func(a, b Ranking) int {
		return compareWorst(b.Result.Worst, a.Result.Worst)
	})
	return out, nil
}

// Scorecard ranks role combinations over every shooting/obstacle/library bonus in
// grid³ and counts how often each combination comes out on top.
func Scorecard(ctx context.Context, base Request, grid []int, opts Options) ([]Tally, error) {
	if len(grid) == 0 {
		grid = DefaultScorecardGrid
	}
	wins := make(map[[TeamSize]Role]int)
	for _, obstacle := range grid {
		for _, shooting := range grid {
			for _, library := range grid {
				req := base
				req.ShootingPct, req.ObstaclePct, req.LibraryPct = shooting, obstacle, library
				ranked, err := RankRoles(ctx, req, opts)
				if errors.Is(err, ErrInfeasible) {
					continue
				}
				if err != nil {
					return nil, err
				}
				wins[ranked[0].Roles]++
			}
		}
	}

	var out []Tally
	for _, combo := range RoleCombinations() {
		out = append(out, Tally{Roles: combo, Wins: wins[combo]})
	}
	slices.SortStableFunc(out, func(a, b Tally) int { return b.Wins - a.Wins })
	return out, nil
}

func compareWorst(a, b float64) int {
	switch {
	case a > b+floorTol:
		return 1
	case b > a+floorTol:
		return -1
	default:
		return 0
	}
}
