package squad

import (
	"fmt"

	"github.com/freeeve/squadplan/pkg/milp"
)

// Skill categories, in allocation order.
const (
	Power     = 0 // shooting tasks
	Athletics = 1 // obstacle tasks
	Wit       = 2 // library tasks
)

// actor is one group that owns an allocation of its own.
type actor struct {
	name   string
	alloc  [3]milp.Var
	leader bool
}

// capability is the actor's individual strength in a category. A non-leader
// also benefits from half of the leader's points.
func (a actor) capability(category int, leader actor) milp.Expr {
	if a.leader {
		return a.alloc[category].Times(1.5)
	}
	return a.alloc[category].Expr().Add(leader.alloc[category].Times(0.5))
}

// groupWeights are the coefficients of the non-leader allocations in the three
// group checks. The leader always counts once.
type groupWeights struct {
	othersShoot, othersObstacle, othersLibrary    float64
	soldierShoot, soldierObstacle, soldierLibrary float64
}

// Model is a built planning MILP plus the handles needed to read a solution.
type Model struct {
	Problem *milp.Problem
	Config  Config
	Hazard  HazardApproach

	Leader  [3]milp.Var
	Others  [3]milp.Var
	Soldier [3]milp.Var // valid only when HasSoldier

	HasSoldier bool

	T  milp.Var
	W0 milp.Var // min of the shooting capabilities
	W1 milp.Var // exact max of the obstacle capabilities

	Indicators []milp.Var

	// ShootingTerms and ObstacleTerms are the capabilities feeding W0 and W1.
	ShootingTerms []milp.Expr
	ObstacleTerms []milp.Expr

	checks  [NumChecks]milp.Expr
	weights groupWeights
	mods    Modifiers
	actors  []actor
}

type builder func(m *Model)

var builders = map[Variant]builder{
	TeamNoSoldier:        buildNoSoldier,
	TeamPooledSoldiers:   buildPooledSoldiers,
	TeamDedicatedSoldier: buildDedicatedSoldier,
}

// Build assembles the MILP for one hazard approach.
func Build(cfg Config, hazard HazardApproach) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mods, err := ModifiersFor(hazard)
	if err != nil {
		return nil, err
	}
	m := &Model{
		Problem: milp.NewProblem(fmt.Sprintf("squad-%s-%s", cfg.Team.Variant(), hazard), milp.Maximize),
		Config:  cfg,
		Hazard:  hazard,
		mods:    mods,
	}
	builders[cfg.Team.Variant()](m)
	return m, nil
}

// buildNoSoldier: leader plus three scientists. Nobody needs the pooled power
// or athletics floors.
func buildNoSoldier(m *Model) {
	m.addLeader()
	m.addOthers()
	m.weights = groupWeights{
		othersShoot:    3,
		othersObstacle: 3,
		othersLibrary:  3.5,
	}
	m.finish()
}

// buildPooledSoldiers: soldiers share the others' allocation and add weight to
// the group shooting check while thinning the group library check.
func buildPooledSoldiers(m *Model) {
	m.addLeader()
	m.addOthers()
	n := float64(m.Config.Team.PooledSoldiers())
	m.weights = groupWeights{
		othersShoot:    3 + n,
		othersObstacle: 3,
		othersLibrary:  3.5 - 0.5*n,
	}
	m.finish()
}

// buildDedicatedSoldier: the soldier in slot 0 gets its own budget; two members
// remain pooled.
func buildDedicatedSoldier(m *Model) {
	m.addLeader()
	m.addSoldier()
	m.addOthers()
	n := float64(m.Config.Team.PooledSoldiers())
	m.weights = groupWeights{
		othersShoot:     2 + n,
		othersObstacle:  2,
		othersLibrary:   3 - 0.5*n,
		soldierShoot:    2,
		soldierObstacle: 1,
		soldierLibrary:  1,
	}
	m.finish()
}

func (m *Model) addLeader() {
	p := m.Problem
	m.Leader = [3]milp.Var{p.IntVar("x11", 1), p.IntVar("x12", 1), p.IntVar("x13", 1)}
	p.Constrain("leader_budget", sumVars(m.Leader), milp.Equal, milp.Constant(float64(m.Config.LeaderBudget)))
	m.actors = append(m.actors, actor{name: "leader", alloc: m.Leader, leader: true})
}

func (m *Model) addSoldier() {
	p := m.Problem
	m.Soldier = [3]milp.Var{p.IntVar("x21", 1), p.IntVar("x22", 1), p.IntVar("x23", 0)}
	m.HasSoldier = true
	p.Constrain("soldier_budget", sumVars(m.Soldier), milp.Equal, milp.Constant(float64(m.Config.SoldierBudget)))
	m.actors = append(m.actors, actor{name: "soldier", alloc: m.Soldier})
}

func (m *Model) addOthers() {
	p := m.Problem
	lb := m.Config.Team.othersLowerBounds()
	m.Others = [3]milp.Var{p.IntVar("a1", lb[0]), p.IntVar("a2", lb[1]), p.IntVar("a3", lb[2])}
	p.Constrain("others_budget", sumVars(m.Others), milp.Equal, milp.Constant(float64(m.Config.OthersBudget)))
	m.actors = append(m.actors, actor{name: "others", alloc: m.Others})
}

// finish links the auxiliary min/max variables, builds the seven checks and sets
// the maximin objective. Shared by every variant.
func (m *Model) finish() {
	p := m.Problem
	leader := m.actors[0]
	for _, a := range m.actors {
		m.ShootingTerms = append(m.ShootingTerms, a.capability(Power, leader))
		m.ObstacleTerms = append(m.ObstacleTerms, a.capability(Athletics, leader))
	}
	m.W0 = LowerMin(p, "w0", m.ShootingTerms)
	m.W1, m.Indicators = ExactMax(p, "w1", m.ObstacleTerms, BigM)
	m.T = p.FreeVar("t")

	m.checks = m.checkExprs(m.W0.Expr(), m.W1.Expr())
	for i, z := range m.checks {
		p.Constrain(fmt.Sprintf("t_le_z%d", i), m.T.Expr(), milp.LessEq, z)
	}
	p.SetObjective(m.T.Expr())
}

func sumVars(vs [3]milp.Var) milp.Expr {
	return milp.Sum(vs[0].Expr(), vs[1].Expr(), vs[2].Expr())
}
