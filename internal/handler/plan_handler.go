package handler

import (
	"net/http"

	"github.com/freeeve/squadplan/internal/auth"
	"github.com/freeeve/squadplan/internal/service"
	"github.com/freeeve/squadplan/pkg/squad"
)

// PlanHandler serves planning endpoints.
type PlanHandler struct {
	planSvc *service.PlanService
}

// NewPlanHandler creates a PlanHandler.
func NewPlanHandler(planSvc *service.PlanService) *PlanHandler {
	return &PlanHandler{planSvc: planSvc}
}

// CreatePlan handles POST /api/v1/plans
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	clientID := auth.ClientIDFromContext(r.Context())
	var req squad.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	plan, err := h.planSvc.Plan(r.Context(), clientID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusCreated
	if plan.Cached {
		status = http.StatusOK
	}
	writeJSON(w, status, plan)
}

// ListPlans handles GET /api/v1/plans
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	clientID := auth.ClientIDFromContext(r.Context())
	plans, err := h.planSvc.List(r.Context(), clientID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

// GetPlan handles GET /api/v1/plans/{id}
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	clientID := auth.ClientIDFromContext(r.Context())
	plan, err := h.planSvc.Get(r.Context(), clientID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// RankRoles handles POST /api/v1/roles/rank. The request's roles are ignored.
func (h *PlanHandler) RankRoles(w http.ResponseWriter, r *http.Request) {
	var req squad.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ranked, err := h.planSvc.RankRoles(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}
