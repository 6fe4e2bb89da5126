package squad

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/freeeve/squadplan/pkg/milp"
)

// Outcome is the result of one hazard approach during a search.
type Outcome struct {
	Hazard   HazardApproach
	Result   *Result
	Err      error
	Duration time.Duration
}

// Options tunes a search.
type Options struct {
	// Solver defaults to milp.NewBranchAndBound().
	Solver milp.Solver
	// Parallel solves the four hazard approaches concurrently. The winner is the
	// same as in a sequential search.
	Parallel bool
	// Observer, if set, is called once per finished hazard approach. Calls are
	// serialized but arrive in completion order when Parallel is set.
	Observer func(Outcome)
}

func (o Options) solver() milp.Solver {
	if o.Solver != nil {
		return o.Solver
	}
	return milp.NewBranchAndBound()
}

// SolveHazard builds, solves and extracts the plan for one hazard approach.
func SolveHazard(ctx context.Context, cfg Config, hazard HazardApproach, solver milp.Solver) (*Result, error) {
	m, err := Build(cfg, hazard)
	if err != nil {
		return nil, err
	}
	sol, err := solver.Solve(ctx, m.Problem)
	if err != nil {
		return nil, fmt.Errorf("%w: hazard %s: %w", ErrSolverFailure, hazard, err)
	}
	switch sol.Status {
	case milp.StatusOptimal:
	case milp.StatusInfeasible:
		return nil, fmt.Errorf("hazard %s: %w", hazard, ErrInfeasible)
	default:
		return nil, fmt.Errorf("%w: hazard %s: solver status %s", ErrSolverFailure, hazard, sol.Status)
	}
	res, err := Extract(m, sol)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("hazard", string(hazard)).
		Str("team", cfg.Team.String()).
		Int("nodes", sol.Nodes).
		Float64("t", res.Worst).
		Stringer("leader", res.Leader).
		Stringer("others", res.Others).
		Msg("Hazard solved")
	return res, nil
}

// Search solves every hazard approach and returns the plan with the largest
// worst-case margin. Ties go to the approach listed first in AllHazards.
// Infeasible approaches are skipped; if all are infeasible the search fails with
// ErrInfeasible. Any other failure aborts the search.
func Search(ctx context.Context, cfg Config, opts Options) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hazards := AllHazards()
	outcomes := make([]Outcome, len(hazards))
	solver := opts.solver()

	var mu sync.Mutex
	notify := func(o Outcome) {
		if opts.Observer == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		opts.Observer(o)
	}
	run := func(ctx context.Context, i int) error {
		start := time.Now()
		res, err := SolveHazard(ctx, cfg, hazards[i], solver)
		outcomes[i] = Outcome{Hazard: hazards[i], Result: res, Err: err, Duration: time.Since(start)}
		notify(outcomes[i])
		if err != nil && !errors.Is(err, ErrInfeasible) {
			return err
		}
		return nil
	}

	if opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i := range hazards {
			g.Go(func() error { return run(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range hazards {
			if err := run(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	return pickBest(outcomes)
}

// pickBest keeps the first outcome with the strictly greatest worst margin.
func pickBest(outcomes []Outcome) (*Result, error) {
	var best *Result
	for _, o := range outcomes {
		if o.Result == nil {
			continue
		}
		if best == nil || o.Result.Worst > best.Worst+floorTol {
			best = o.Result
		}
	}
	if best == nil {
		return nil, fmt.Errorf("all %d hazard approaches: %w", len(outcomes), ErrInfeasible)
	}
	return best, nil
}
