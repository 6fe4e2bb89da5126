package squad

import "fmt"

// Tier is a target success probability and the roll bonuses it grants.
type Tier struct {
	Label          string `json:"label"`
	RollIndividual int    `json:"roll_individual"`
	RollGroup      int    `json:"roll_group"`
}

var tiers = []Tier{
	{Label: "100%", RollIndividual: 1, RollGroup: 4},
	{Label: "90%", RollIndividual: 3, RollGroup: 27},
	{Label: "80%", RollIndividual: 5, RollGroup: 32},
	{Label: "70%", RollIndividual: 7, RollGroup: 36},
	{Label: "60%", RollIndividual: 9, RollGroup: 39},
	{Label: "50%", RollIndividual: 11, RollGroup: 42},
}

// AllTiers returns the six success tiers from most to least certain.
func AllTiers() []Tier {
	return append([]Tier(nil), tiers...)
}

// LookupTier finds a tier by its label, e.g. "90%".
func LookupTier(label string) (Tier, error) {
	for _, t := range tiers {
		if t.Label == label {
			return t, nil
		}
	}
	return Tier{}, fmt.Errorf("%w: unknown success tier %q", ErrInvalidConfiguration, label)
}
