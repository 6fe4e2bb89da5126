package model

import (
	"time"

	"github.com/freeeve/squadplan/pkg/squad"
)

// Plan is a finished planning request as stored and served by the API.
type Plan struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	// Fingerprint identifies the normalized request; equal requests share it.
	Fingerprint string        `json:"fingerprint"`
	Request     squad.Request `json:"request"`
	Result      squad.Result  `json:"result"`
	// Cached is set when the result came from the plan cache instead of a solve.
	Cached    bool      `json:"cached"`
	CreatedAt time.Time `json:"created_at"`
}

// PlanSummary is the list view of a stored plan.
type PlanSummary struct {
	ID         string               `json:"id"`
	Hazard     squad.HazardApproach `json:"hazard"`
	Guaranteed int                  `json:"guaranteed"`
	Roles      []string             `json:"roles"`
	CreatedAt  time.Time            `json:"created_at"`
}

// Summary returns the list view of p.
func (p *Plan) Summary() PlanSummary {
	return PlanSummary{
		ID:         p.ID,
		Hazard:     p.Result.Hazard,
		Guaranteed: p.Result.Guaranteed,
		Roles:      p.Request.Roles,
		CreatedAt:  p.CreatedAt,
	}
}
