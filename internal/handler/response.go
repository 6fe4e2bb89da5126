package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/squadplan/internal/logger"
	"github.com/freeeve/squadplan/internal/service"
	"github.com/freeeve/squadplan/pkg/squad"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads and decodes JSON from a request body. Unknown fields are
// rejected so misspelled request options fail loudly.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusFor maps service and planner errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, squad.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPlanNotFound):
		return http.StatusNotFound
	case errors.Is(err, squad.ErrInfeasible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, squad.ErrSolverFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs err and writes it with the status statusFor picks.
// Internal errors are not echoed to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	l := logger.ForRequest(r.Context())
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		l.Info().Err(err).Int("status", status).Msg("Request rejected")
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, msg)
}
