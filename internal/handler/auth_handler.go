package handler

import (
	"net/http"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/squadplan/internal/auth"
)

var clientNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// AuthHandler issues and refreshes API tokens.
type AuthHandler struct {
	jwtMgr *auth.JWTManager
	dev    bool
}

// NewAuthHandler creates an AuthHandler. Tokens are only handed out directly
// in dev mode; otherwise they are provisioned out of band and only refreshed here.
func NewAuthHandler(jwtMgr *auth.JWTManager, dev bool) *AuthHandler {
	return &AuthHandler{jwtMgr: jwtMgr, dev: dev}
}

// IssueToken handles POST /auth/token (dev mode only).
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if !h.dev {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var req struct {
		Client string `json:"client"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !clientNamePattern.MatchString(req.Client) {
		writeError(w, http.StatusBadRequest, "client must be 1-64 letters, digits, '.', '_' or '-'")
		return
	}

	tokens, err := h.jwtMgr.GenerateTokenPair(req.Client)
	if err != nil {
		log.Error().Err(err).Str("client", req.Client).Msg("Failed to generate tokens")
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims, err := h.jwtMgr.ValidateToken(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	tokens, err := h.jwtMgr.GenerateTokenPair(claims.ClientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
