package repository

import (
	"context"
	"time"

	"github.com/freeeve/squadplan/internal/model"
)

// PlanRepository stores plan history (Postgres).
type PlanRepository interface {
	Create(ctx context.Context, plan *model.Plan) error
	// FindByID returns nil, nil when no plan has the ID.
	FindByID(ctx context.Context, id string) (*model.Plan, error)
	ListByClient(ctx context.Context, clientID string, limit int) ([]model.PlanSummary, error)
}

// PlanCache holds recently solved plans keyed by request fingerprint (Redis).
type PlanCache interface {
	// GetPlan returns nil, nil on a miss.
	GetPlan(ctx context.Context, fingerprint string) (*model.Plan, error)
	SetPlan(ctx context.Context, plan *model.Plan, ttl time.Duration) error
	// Invalidate drops a cached plan.
	Invalidate(ctx context.Context, fingerprint string) error
}
