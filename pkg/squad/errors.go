// Package squad plans how a small team spends its skill points so that the
// weakest of seven success checks is as strong as possible.
//
// A plan is a maximin MILP: the leader, an optional dedicated soldier and the
// pooled remaining members each split a skill budget over power, athletics and
// wit. The model is rebuilt for every hazard approach and the approach with the
// best guaranteed margin wins.
package squad

import "errors"

var (
	// ErrInvalidConfiguration marks inputs rejected before a model is built.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInfeasible means no allocation satisfies the budgets and lower bounds.
	ErrInfeasible = errors.New("no feasible allocation")
	// ErrSolverFailure covers engine errors, limits, timeouts and non-integral results.
	ErrSolverFailure = errors.New("solver failure")
)
