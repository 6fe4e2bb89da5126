package squad

import (
	"fmt"
	"strings"
)

// HazardApproach is the posture a team takes toward a hazard.
type HazardApproach string

const (
	Neutral     HazardApproach = "neutral"
	Negotiation HazardApproach = "negotiation"
	Aggressive  HazardApproach = "aggressive"
	Recon       HazardApproach = "recon"
)

// Modifiers scales four of the seven checks. The zero value is not valid; use
// ModifiersFor.
type Modifiers [4]float64

// SocialScience scales the individual social-science check.
func (m Modifiers) SocialScience() float64 { return m[0] }

// GroupShooting scales the group shooting check.
func (m Modifiers) GroupShooting() float64 { return m[1] }

// GroupLibrary scales the group library check.
func (m Modifiers) GroupLibrary() float64 { return m[2] }

// Obstacle scales both obstacle checks.
func (m Modifiers) Obstacle() float64 { return m[3] }

var hazardOrder = []HazardApproach{Neutral, Negotiation, Aggressive, Recon}

var hazardModifiers = map[HazardApproach]Modifiers{
	Neutral:     {1, 1, 1, 1},
	Negotiation: {0.9, 1.1, 1, 1},
	Aggressive:  {1.25, 0.85, 1, 1},
	Recon:       {1, 0.85, 0.9, 1.25},
}

// AllHazards returns every approach in search order. Ties in the search go to
// the approach that comes first here.
func AllHazards() []HazardApproach {
	return append([]HazardApproach(nil), hazardOrder...)
}

// ModifiersFor returns the modifier vector of an approach.
func ModifiersFor(h HazardApproach) (Modifiers, error) {
	m, ok := hazardModifiers[h]
	if !ok {
		return Modifiers{}, fmt.Errorf("%w: unknown hazard approach %q", ErrInvalidConfiguration, h)
	}
	return m, nil
}

// ParseHazard accepts an approach name in any case.
func ParseHazard(s string) (HazardApproach, error) {
	h := HazardApproach(strings.ToLower(strings.TrimSpace(s)))
	if _, err := ModifiersFor(h); err != nil {
		return "", err
	}
	return h, nil
}

// Title returns the display name, e.g. "Negotiation".
func (h HazardApproach) Title() string {
	if h == "" {
		return ""
	}
	return strings.ToUpper(string(h[:1])) + string(h[1:])
}
