package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/squadplan/internal/model"
	"github.com/freeeve/squadplan/internal/repository"
	"github.com/freeeve/squadplan/pkg/milp"
	"github.com/freeeve/squadplan/pkg/squad"
)

var ErrPlanNotFound = errors.New("plan not found")

const defaultListLimit = 50

// Options tunes a PlanService.
type Options struct {
	// SolveTimeout bounds one search; zero means no limit.
	SolveTimeout time.Duration
	CacheTTL     time.Duration
	Parallel     bool
	MaxNodes     int
	ListLimit    int
}

// PlanService plans squads, caches results by request and keeps per-client
// history. Cache and history are optional; their failures never fail a plan.
type PlanService struct {
	plans       repository.PlanRepository
	cache       repository.PlanCache
	broadcaster Broadcaster
	opts        Options

	// planLocks serializes identical requests so the second one hits the cache
	// instead of solving again. An entry lives only while a request holds or
	// waits on it.
	locksMu   sync.Mutex
	planLocks map[string]*planLock
}

type planLock struct {
	mu   sync.Mutex
	refs int
}

// NewPlanService creates a PlanService.
func NewPlanService(plans repository.PlanRepository, cache repository.PlanCache, broadcaster Broadcaster, opts Options) *PlanService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = defaultListLimit
	}
	return &PlanService{
		plans:       plans,
		cache:       cache,
		broadcaster: broadcaster,
		opts:        opts,
		planLocks:   make(map[string]*planLock),
	}
}

// Fingerprint identifies a request after normalization; equivalent requests
// share a fingerprint.
func Fingerprint(req squad.Request) (string, error) {
	norm, err := req.Normalized()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(norm)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16]), nil
}

func (s *PlanService) searchOptions(observer func(squad.Outcome)) squad.Options {
	solver := milp.NewBranchAndBound()
	if s.opts.MaxNodes > 0 {
		solver.MaxNodes = s.opts.MaxNodes
	}
	return squad.Options{Solver: solver, Parallel: s.opts.Parallel, Observer: observer}
}

func (s *PlanService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.SolveTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.SolveTimeout)
}

func (s *PlanService) lockFor(fingerprint string) func() {
	s.locksMu.Lock()
	l, ok := s.planLocks[fingerprint]
	if !ok {
		l = &planLock{}
		s.planLocks[fingerprint] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.planLocks, fingerprint)
		}
		s.locksMu.Unlock()
	}
}

// Plan validates a request and returns its best plan, solving only on a cache
// miss. Progress is broadcast to the client's WebSocket connections.
func (s *PlanService) Plan(ctx context.Context, clientID string, req squad.Request) (*model.Plan, error) {
	norm, err := req.Normalized()
	if err != nil {
		return nil, err
	}
	cfg, err := norm.Config()
	if err != nil {
		return nil, err
	}
	fp, err := Fingerprint(norm)
	if err != nil {
		return nil, err
	}
	unlock := s.lockFor(fp)
	defer unlock()

	plan := &model.Plan{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		Fingerprint: fp,
		Request:     norm,
		CreatedAt:   time.Now().UTC(),
	}

	if cached := s.cached(ctx, fp); cached != nil {
		plan.Result = cached.Result
		plan.Cached = true
	} else {
		res, err := s.solve(ctx, clientID, fp, cfg)
		if err != nil {
			s.broadcaster.BroadcastToClient(clientID, EventPlanFailed, map[string]any{
				"fingerprint": fp,
				"error":       err.Error(),
			})
			return nil, err
		}
		plan.Result = *res
		if s.cache != nil {
			if err := s.cache.SetPlan(ctx, plan, s.opts.CacheTTL); err != nil {
				log.Warn().Err(err).Str("fingerprint", fp).Msg("Failed to cache plan")
			}
		}
	}

	if s.plans != nil {
		if err := s.plans.Create(ctx, plan); err != nil {
			log.Error().Err(err).Str("planId", plan.ID).Msg("Failed to record plan history")
		}
	}

	s.broadcaster.BroadcastToClient(clientID, EventPlanReady, map[string]any{
		"plan_id":     plan.ID,
		"fingerprint": fp,
		"hazard":      plan.Result.Hazard,
		"guaranteed":  plan.Result.Guaranteed,
		"cached":      plan.Cached,
	})
	log.Info().
		Str("planId", plan.ID).
		Str("clientId", clientID).
		Str("hazard", string(plan.Result.Hazard)).
		Int("guaranteed", plan.Result.Guaranteed).
		Bool("cached", plan.Cached).
		Msg("Plan ready")
	return plan, nil
}

func (s *PlanService) cached(ctx context.Context, fp string) *model.Plan {
	if s.cache == nil {
		return nil
	}
	p, err := s.cache.GetPlan(ctx, fp)
	if err != nil {
		log.Warn().Err(err).Str("fingerprint", fp).Msg("Plan cache lookup failed")
		return nil
	}
	return p
}

func (s *PlanService) solve(ctx context.Context, clientID, fp string, cfg squad.Config) (*squad.Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	observer := func(o squad.Outcome) {
		data := map[string]any{
			"fingerprint": fp,
			"hazard":      o.Hazard,
			"duration_ms": o.Duration.Milliseconds(),
		}
		switch {
		case o.Result != nil:
			data["guaranteed"] = o.Result.Guaranteed
			data["worst"] = o.Result.Worst
		case errors.Is(o.Err, squad.ErrInfeasible):
			data["infeasible"] = true
		default:
			return
		}
		s.broadcaster.BroadcastToClient(clientID, EventHazardSolved, data)
	}

	start := time.Now()
	res, err := squad.Search(ctx, cfg, s.searchOptions(observer))
	if err != nil {
		return nil, err
	}
	log.Debug().Str("fingerprint", fp).Dur("elapsed", time.Since(start)).Msg("Search finished")
	return res, nil
}

// Get returns one of the client's plans. Plans of other clients are reported as
// not found.
func (s *PlanService) Get(ctx context.Context, clientID, id string) (*model.Plan, error) {
	if _, err := uuid.Parse(id); err != nil || s.plans == nil {
		return nil, ErrPlanNotFound
	}
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.ClientID != clientID {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

// List returns the client's most recent plans, newest first.
func (s *PlanService) List(ctx context.Context, clientID string) ([]model.PlanSummary, error) {
	if s.plans == nil {
		return []model.PlanSummary{}, nil
	}
	out, err := s.plans.ListByClient(ctx, clientID, s.opts.ListLimit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.PlanSummary{}
	}
	return out, nil
}

// RankRoles plans every role combination for the request's levels and
// environment, best first.
func (s *PlanService) RankRoles(ctx context.Context, req squad.Request) ([]squad.Ranking, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return squad.RankRoles(ctx, req, s.searchOptions(nil))
}
