package squad

import (
	"context"
	"testing"
)

func TestRoleCombinations(t *testing.T) {
	combos := RoleCombinations()
	if len(combos) != 10 {
		t.Fatalf("got %d combinations, want 10", len(combos))
	}
	seen := make(map[[TeamSize]Role]bool)
	for _, c := range combos {
		if seen[c] {
			t.Errorf("duplicate combination %v", c)
		}
		seen[c] = true
		if c[0] > c[1] || c[1] > c[2] {
			t.Errorf("combination %v not sorted", c)
		}
		hasSoldier := c[0] == Soldier || c[1] == Soldier || c[2] == Soldier
		if hasSoldier && c[0] != Soldier {
			t.Errorf("combination %v has a soldier outside slot 0", c)
		}
	}
}

func TestRankRoles(t *testing.T) {
	if testing.Short() {
		t.Skip("solves every role combination")
	}
	base := scenarioRequest()
	base.SoldierLevel = 45
	ranked, err := RankRoles(context.Background(), base, Options{Parallel: true})
	if err != nil {
		t.Fatalf("RankRoles: %v", err)
	}
	if len(ranked) != 10 {
		t.Fatalf("ranked %d combinations, want 10", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Result.Worst > ranked[i-1].Result.Worst+1e-9 {
			t.Errorf("ranking not sorted at %d: %v > %v", i, ranked[i].Result.Worst, ranked[i-1].Result.Worst)
		}
	}
	for _, r := range ranked {
		dedicated := r.Result.Soldier != nil
		if dedicated != (r.Roles[0] == Soldier) {
			t.Errorf("%v: dedicated soldier = %v", r.Roles, dedicated)
		}
	}
}

func TestScorecard_SinglePoint(t *testing.T) {
	if testing.Short() {
		t.Skip("solves every role combination")
	}
	tallies, err := Scorecard(context.Background(), scenarioRequest(), []int{0}, Options{Parallel: true})
	if err != nil {
		t.Fatalf("Scorecard: %v", err)
	}
	if len(tallies) != 10 {
		t.Fatalf("got %d tallies, want 10", len(tallies))
	}
	total := 0
	for _, tl := range tallies {
		total += tl.Wins
	}
	if total != 1 {
		t.Errorf("total wins = %d, want 1 for a one-point grid", total)
	}
	if tallies[0].Wins != 1 {
		t.Errorf("winner not sorted first: %+v", tallies[0])
	}
}

func TestCompareWorst(t *testing.T) {
	tests := []struct {
		a, b float64
		want int
	}{
		{1, 2, -1},
		{2, 1, 1},
		{1, 1 + 1e-12, 0},
	}
	for _, tt := range tests {
		if got := compareWorst(tt.a, tt.b); got != tt.want {
			t.Errorf("compareWorst(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
