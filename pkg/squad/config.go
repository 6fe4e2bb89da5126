package squad

import (
	"fmt"
	"math"
)

// Config is everything a model needs except the hazard approach.
type Config struct {
	// Environment level multipliers, 1 + pct/100.
	Shooting float64
	Obstacle float64
	Library  float64

	LeaderBudget  int
	OthersBudget  int
	SoldierBudget int // only read for a dedicated-soldier team

	RollIndividual int
	RollGroup      int

	Team Team

	// FloorMargins reports the seven margins rounded down, like the guaranteed level.
	FloorMargins bool
}

// Validate rejects configurations that must never reach the solver. Budgets that
// are positive but too small for the lower bounds are left for the solver to
// report as infeasible.
func (c Config) Validate() error {
	levels := []struct {
		name string
		v    float64
	}{{"shooting", c.Shooting}, {"obstacle", c.Obstacle}, {"library", c.Library}}
	for _, l := range levels {
		if math.IsNaN(l.v) || math.IsInf(l.v, 0) || l.v < 0 {
			return fmt.Errorf("%w: %s level multiplier %v", ErrInvalidConfiguration, l.name, l.v)
		}
	}
	if c.LeaderBudget <= 0 {
		return fmt.Errorf("%w: leader budget %d", ErrInvalidConfiguration, c.LeaderBudget)
	}
	if c.OthersBudget <= 0 {
		return fmt.Errorf("%w: others budget %d", ErrInvalidConfiguration, c.OthersBudget)
	}
	if c.Team.DedicatedSoldier && c.SoldierBudget <= 0 {
		return fmt.Errorf("%w: soldier budget %d", ErrInvalidConfiguration, c.SoldierBudget)
	}
	if c.RollIndividual < 0 || c.RollGroup < 0 {
		return fmt.Errorf("%w: negative roll bonus (%d, %d)", ErrInvalidConfiguration, c.RollIndividual, c.RollGroup)
	}
	if _, err := NewTeam(c.Team.Slots[:], c.Team.DedicatedSoldier); err != nil {
		return err
	}
	return nil
}
