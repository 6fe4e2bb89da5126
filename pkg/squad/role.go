package squad

import (
	"fmt"
	"strings"
)

// Role is the job a non-leader member holds.
type Role int

const (
	Soldier Role = iota + 1
	NaturalScientist
	SocialScientist
)

// AllRoles returns the roles in their canonical order.
func AllRoles() []Role {
	return []Role{Soldier, NaturalScientist, SocialScientist}
}

func (r Role) String() string {
	switch r {
	case Soldier:
		return "Soldier"
	case NaturalScientist:
		return "Natural Scientist"
	case SocialScientist:
		return "Social Scientist"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole accepts display names ("Natural Scientist") and snake case
// ("natural_scientist"), ignoring case.
func ParseRole(s string) (Role, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	switch norm {
	case "soldier":
		return Soldier, nil
	case "natural scientist":
		return NaturalScientist, nil
	case "social scientist":
		return SocialScientist, nil
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidConfiguration, s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if r < Soldier || r > SocialScientist {
		return nil, fmt.Errorf("%w: unknown role %d", ErrInvalidConfiguration, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Variant selects which model builder a team needs.
type Variant int

const (
	// TeamNoSoldier has no soldier in any slot.
	TeamNoSoldier Variant = iota
	// TeamPooledSoldiers has soldiers, all sharing the others' allocation.
	TeamPooledSoldiers
	// TeamDedicatedSoldier gives the first slot's soldier an allocation of its own.
	TeamDedicatedSoldier
)

func (v Variant) String() string {
	switch v {
	case TeamPooledSoldiers:
		return "pooled-soldiers"
	case TeamDedicatedSoldier:
		return "dedicated-soldier"
	default:
		return "no-soldier"
	}
}

// TeamSize is the number of non-leader slots.
const TeamSize = 3

// Team is the role assignment of the three non-leader slots.
type Team struct {
	Slots            [TeamSize]Role
	DedicatedSoldier bool
}

// NewTeam validates a role assignment. A dedicated soldier must sit in slot 0.
func NewTeam(roles []Role, dedicatedSoldier bool) (Team, error) {
	if len(roles) != TeamSize {
		return Team{}, fmt.Errorf("%w: team needs %d roles, got %d", ErrInvalidConfiguration, TeamSize, len(roles))
	}
	var t Team
	for i, r := range roles {
		if r < Soldier || r > SocialScientist {
			return Team{}, fmt.Errorf("%w: slot %d has unknown role %d", ErrInvalidConfiguration, i, int(r))
		}
		t.Slots[i] = r
	}
	if dedicatedSoldier && t.Slots[0] != Soldier {
		return Team{}, fmt.Errorf("%w: dedicated soldier slot holds %s", ErrInvalidConfiguration, t.Slots[0])
	}
	t.DedicatedSoldier = dedicatedSoldier
	return t, nil
}

// Variant reports which builder applies to the team.
func (t Team) Variant() Variant {
	switch {
	case t.DedicatedSoldier:
		return TeamDedicatedSoldier
	case t.count(Soldier) > 0:
		return TeamPooledSoldiers
	default:
		return TeamNoSoldier
	}
}

// Pooled returns the roles that share the others' allocation.
func (t Team) Pooled() []Role {
	if t.DedicatedSoldier {
		return t.Slots[1:]
	}
	return t.Slots[:]
}

// PooledSoldiers counts soldiers sharing the others' allocation.
func (t Team) PooledSoldiers() int {
	n := 0
	for _, r := range t.Pooled() {
		if r == Soldier {
			n++
		}
	}
	return n
}

// LeaderOwnsNaturalScience is true when no slot holds the natural-science role,
// leaving that check to the leader alone.
func (t Team) LeaderOwnsNaturalScience() bool {
	return t.count(NaturalScientist) == 0
}

// LeaderOwnsSocialScience is true when no slot holds the social-science role.
func (t Team) LeaderOwnsSocialScience() bool {
	return t.count(SocialScientist) == 0
}

// othersLowerBounds returns the floors of the pooled power, athletics and wit
// allocations. A floor only matters when some pooled member needs the category.
func (t Team) othersLowerBounds() [3]float64 {
	bounds := [3]float64{1, 1, 2}
	n := t.PooledSoldiers()
	switch {
	case n == 0:
		bounds[0], bounds[1] = 0, 0
	case n == len(t.Pooled()):
		bounds[2] = 0
	}
	return bounds
}

func (t Team) count(r Role) int {
	n := 0
	for _, s := range t.Slots {
		if s == r {
			n++
		}
	}
	return n
}

func (t Team) String() string {
	names := make([]string, len(t.Slots))
	for i, r := range t.Slots {
		names[i] = r.String()
	}
	s := strings.Join(names, ", ")
	if t.DedicatedSoldier {
		s += " (dedicated soldier)"
	}
	return s
}
