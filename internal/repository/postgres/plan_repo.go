package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/freeeve/squadplan/internal/model"
)

// PlanRepo stores plan history.
type PlanRepo struct {
	db *sql.DB
}

// NewPlanRepo creates a PlanRepo.
func NewPlanRepo(db *sql.DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// Create inserts a plan and fills in its creation time.
func (r *PlanRepo) Create(ctx context.Context, p *model.Plan) error {
	req, err := json.Marshal(p.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	res, err := json.Marshal(p.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO plans (id, client_id, fingerprint, request, result, hazard, guaranteed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		p.ID, p.ClientID, p.Fingerprint, req, res, string(p.Result.Hazard), p.Result.Guaranteed,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

// FindByID returns a plan, or nil if none has the ID.
func (r *PlanRepo) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	var p model.Plan
	var req, res []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, client_id, fingerprint, request, result, created_at
		 FROM plans WHERE id = $1`, id,
	).Scan(&p.ID, &p.ClientID, &p.Fingerprint, &req, &res, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	if err := json.Unmarshal(req, &p.Request); err != nil {
		return nil, fmt.Errorf("decode plan request: %w", err)
	}
	if err := json.Unmarshal(res, &p.Result); err != nil {
		return nil, fmt.Errorf("decode plan result: %w", err)
	}
	return &p, nil
}

// ListByClient returns a client's most recent plans, newest first.
func (r *PlanRepo) ListByClient(ctx context.Context, clientID string, limit int) ([]model.PlanSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, hazard, guaranteed, request->'roles', created_at
		 FROM plans
		 WHERE client_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`, clientID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []model.PlanSummary
	for rows.Next() {
		var s model.PlanSummary
		var roles []byte
		if err := rows.Scan(&s.ID, &s.Hazard, &s.Guaranteed, &roles, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		if err := json.Unmarshal(roles, &s.Roles); err != nil {
			return nil, fmt.Errorf("decode plan roles: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
