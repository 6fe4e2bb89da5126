package squad

import (
	"math"

	"github.com/freeeve/squadplan/pkg/milp"
)

// NumChecks is the number of success checks a plan must pass.
const NumChecks = 7

// Baselines and divisors of the success-margin formulas.
const (
	individualBaseline = 10
	individualScale    = 1.5
	groupBaseline      = 40
	groupScale         = 4
)

// Checks holds the success margin of every check, in z0..z6 order.
type Checks struct {
	IndividualShooting float64 `json:"individual_shooting"`
	IndividualObstacle float64 `json:"individual_obstacle"`
	NaturalScience     float64 `json:"natural_science"`
	SocialScience      float64 `json:"social_science"`
	GroupShooting      float64 `json:"group_shooting"`
	GroupObstacle      float64 `json:"group_obstacle"`
	GroupLibrary       float64 `json:"group_library"`
}

// CheckNames lists the JSON names of the checks in z0..z6 order.
var CheckNames = [NumChecks]string{
	"individual_shooting",
	"individual_obstacle",
	"natural_science",
	"social_science",
	"group_shooting",
	"group_obstacle",
	"group_library",
}

func checksFromValues(z [NumChecks]float64) Checks {
	return Checks{
		IndividualShooting: z[0],
		IndividualObstacle: z[1],
		NaturalScience:     z[2],
		SocialScience:      z[3],
		GroupShooting:      z[4],
		GroupObstacle:      z[5],
		GroupLibrary:       z[6],
	}
}

// Values returns the margins in z0..z6 order.
func (c Checks) Values() [NumChecks]float64 {
	return [NumChecks]float64{
		c.IndividualShooting,
		c.IndividualObstacle,
		c.NaturalScience,
		c.SocialScience,
		c.GroupShooting,
		c.GroupObstacle,
		c.GroupLibrary,
	}
}

// Worst returns the smallest margin and its index.
func (c Checks) Worst() (float64, int) {
	vals := c.Values()
	worst, idx := math.Inf(1), -1
	for i, v := range vals {
		if v < worst {
			worst, idx = v, i
		}
	}
	return worst, idx
}

// individualCheck is (capability·level + roll − 10·mod) / (1.5·mod).
func individualCheck(capability milp.Expr, level float64, roll int, mod float64) milp.Expr {
	return capability.Scale(level).Plus(float64(roll) - individualBaseline*mod).Scale(1 / (individualScale * mod))
}

// groupCheck is (capability·level + roll − 40·mod) / (4·mod).
func groupCheck(capability milp.Expr, level float64, roll int, mod float64) milp.Expr {
	return capability.Scale(level).Plus(float64(roll) - groupBaseline*mod).Scale(1 / (groupScale * mod))
}

// checkExprs builds z0..z6 with w0 and w1 standing in for the weakest shooter and
// the strongest climber. The model passes its auxiliary variables; extraction
// passes the true min and max of the rounded allocation.
func (m *Model) checkExprs(w0, w1 milp.Expr) [NumChecks]milp.Expr {
	cfg := m.Config
	team := cfg.Team
	ri, rg := cfg.RollIndividual, cfg.RollGroup
	leaderWit := m.Leader[Wit]
	pooledWit := m.Others[Wit].Expr().Add(leaderWit.Times(0.5))

	var z [NumChecks]milp.Expr
	z[0] = individualCheck(w0, cfg.Shooting, ri, 1)
	z[1] = individualCheck(w1, cfg.Obstacle, ri, m.mods.Obstacle())
	if team.LeaderOwnsNaturalScience() {
		z[2] = leaderWit.Times(individualScale)
	} else {
		z[2] = individualCheck(pooledWit, cfg.Library, ri, 1)
	}
	if team.LeaderOwnsSocialScience() {
		z[3] = leaderWit.Times(individualScale)
	} else {
		z[3] = individualCheck(pooledWit, cfg.Library, ri, m.mods.SocialScience())
	}

	w := m.weights
	shoot := milp.Sum(m.Leader[Power].Expr(), m.Others[Power].Times(w.othersShoot))
	obstacle := milp.Sum(m.Leader[Athletics].Expr(), m.Others[Athletics].Times(w.othersObstacle))
	library := milp.Sum(leaderWit.Expr(), m.Others[Wit].Times(w.othersLibrary))
	if m.HasSoldier {
		shoot = shoot.Add(m.Soldier[Power].Times(w.soldierShoot))
		obstacle = obstacle.Add(m.Soldier[Athletics].Times(w.soldierObstacle))
		library = library.Add(m.Soldier[Wit].Times(w.soldierLibrary))
	}
	z[4] = groupCheck(shoot, cfg.Shooting, rg, m.mods.GroupShooting())
	z[5] = groupCheck(obstacle, cfg.Obstacle, rg, m.mods.Obstacle())
	z[6] = groupCheck(library, cfg.Library, rg, m.mods.GroupLibrary())
	return z
}
