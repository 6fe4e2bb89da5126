package squad

import (
	"fmt"
)

// Request is the raw planning input as submitted by a user. Levels are member
// levels, not skill points; percentages are environment bonuses.
type Request struct {
	Roles        []string `json:"roles" yaml:"roles"`
	LeaderLevel  int      `json:"leader_level" yaml:"leader_level"`
	SoldierLevel int      `json:"soldier_level,omitempty" yaml:"soldier_level,omitempty"`
	OthersLevel  int      `json:"others_level" yaml:"others_level"`
	ShootingPct  int      `json:"shooting_pct" yaml:"shooting_pct"`
	ObstaclePct  int      `json:"obstacle_pct" yaml:"obstacle_pct"`
	LibraryPct   int      `json:"library_pct" yaml:"library_pct"`
	SuccessTier  string   `json:"success_tier" yaml:"success_tier"`
	FloorMargins bool     `json:"floor_margins,omitempty" yaml:"floor_margins,omitempty"`
}

// Config validates the request and converts it into a model configuration.
// A soldier level turns slot 0 into a dedicated soldier, so it is only accepted
// when slot 0 holds a soldier.
func (r Request) Config() (Config, error) {
	if len(r.Roles) != TeamSize {
		return Config{}, fmt.Errorf("%w: expected %d roles, got %d", ErrInvalidConfiguration, TeamSize, len(r.Roles))
	}
	roles := make([]Role, len(r.Roles))
	for i, s := range r.Roles {
		role, err := ParseRole(s)
		if err != nil {
			return Config{}, err
		}
		roles[i] = role
	}
	if r.LeaderLevel <= 0 {
		return Config{}, fmt.Errorf("%w: leader level must be positive, got %d", ErrInvalidConfiguration, r.LeaderLevel)
	}
	if r.OthersLevel <= 0 {
		return Config{}, fmt.Errorf("%w: others level must be positive, got %d", ErrInvalidConfiguration, r.OthersLevel)
	}
	if r.SoldierLevel < 0 {
		return Config{}, fmt.Errorf("%w: soldier level must be positive, got %d", ErrInvalidConfiguration, r.SoldierLevel)
	}
	pcts := []struct {
		name string
		pct  int
	}{{"shooting", r.ShootingPct}, {"obstacle", r.ObstaclePct}, {"library", r.LibraryPct}}
	for _, p := range pcts {
		if p.pct < 0 {
			return Config{}, fmt.Errorf("%w: %s level percentage must not be negative, got %d", ErrInvalidConfiguration, p.name, p.pct)
		}
	}
	tier, err := LookupTier(r.SuccessTier)
	if err != nil {
		return Config{}, err
	}
	team, err := NewTeam(roles, r.SoldierLevel > 0)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Shooting:       LevelMultiplier(r.ShootingPct),
		Obstacle:       LevelMultiplier(r.ObstaclePct),
		Library:        LevelMultiplier(r.LibraryPct),
		LeaderBudget:   SkillPoints(r.LeaderLevel, true),
		OthersBudget:   SkillPoints(r.OthersLevel, false),
		RollIndividual: tier.RollIndividual,
		RollGroup:      tier.RollGroup,
		Team:           team,
		FloorMargins:   r.FloorMargins,
	}
	if team.DedicatedSoldier {
		cfg.SoldierBudget = SkillPoints(r.SoldierLevel, false)
	}
	return cfg, nil
}

// Normalized returns a copy with canonical role names, so equivalent requests
// compare equal.
func (r Request) Normalized() (Request, error) {
	out := r
	out.Roles = make([]string, len(r.Roles))
	for i, s := range r.Roles {
		role, err := ParseRole(s)
		if err != nil {
			return Request{}, err
		}
		out.Roles[i] = role.String()
	}
	return out, nil
}
