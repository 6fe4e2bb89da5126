package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/freeeve/squadplan/internal/auth"
	"github.com/freeeve/squadplan/internal/middleware"
)

// HealthCheck reports whether a backing store is reachable.
type HealthCheck func(ctx context.Context) error

// Routes bundles what NewRouter wires together.
type Routes struct {
	Auth   *AuthHandler
	Plans  *PlanHandler
	WS     *WSHandler
	JWT    *auth.JWTManager
	Health map[string]HealthCheck
}

// NewRouter builds the HTTP handler with global middleware applied.
func NewRouter(rt Routes) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthz(rt.Health))

	mux.HandleFunc("POST /auth/token", rt.Auth.IssueToken)
	mux.HandleFunc("POST /auth/refresh", rt.Auth.RefreshToken)

	api := http.NewServeMux()
	api.HandleFunc("GET /tiers", ListTiers)
	api.HandleFunc("GET /hazards", ListHazards)
	api.HandleFunc("POST /plans", rt.Plans.CreatePlan)
	api.HandleFunc("GET /plans", rt.Plans.ListPlans)
	api.HandleFunc("GET /plans/{id}", rt.Plans.GetPlan)
	api.HandleFunc("POST /roles/rank", rt.Plans.RankRoles)
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", auth.Middleware(rt.JWT)(api)))

	// WebSocket (auth via query param, not middleware)
	if rt.WS != nil {
		mux.HandleFunc("GET /api/v1/ws", rt.WS.ServeWS)
	}

	return middleware.Chain(mux, middleware.Logger, middleware.Recover, middleware.CORS("*"), middleware.JSON)
}

func healthz(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		writeJSON(w, code, status)
	}
}
