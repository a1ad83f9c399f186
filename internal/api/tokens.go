package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/auth"
)

// tokensAPIHandler provides REST handlers for API token management.
type tokensAPIHandler struct {
	tokens auth.TokenStore
	log    *zap.Logger
}

// List returns the caller's tokens. Hashes and plaintexts are never included.
// GET /api/v1/tokens
func (h *tokensAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	records, err := h.tokens.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, r, h.log, err, "token")
		return
	}
	resp := &TokenListResponse{Tokens: make([]*TokenResponse, 0, len(records))}
	for _, rec := range records {
		resp.Tokens = append(resp.Tokens, toTokenResponse(rec))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// Create issues a new token and returns the plaintext once.
// POST /api/v1/tokens
func (h *tokensAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req CreateTokenRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, h.log, err, "token")
		return
	}
	var ttl time.Duration
	if req.ExpiresIn != "" {
		d, err := time.ParseDuration(req.ExpiresIn)
		if err != nil || d <= 0 {
			writeError(w, r, http.StatusBadRequest, "expires_in must be a positive duration such as 720h", "BAD_REQUEST")
			return
		}
		ttl = d
	}

	plaintext, rec, err := auth.Issue(r.Context(), h.tokens, user.ID, req.Name, ttl)
	if err != nil {
		writeDomainError(w, r, h.log, err, "token")
		return
	}
	resp := toTokenResponse(rec)
	resp.Token = plaintext
	writeJSON(w, r, http.StatusCreated, resp)
}

// Revoke revokes a token owned by the caller. Other users' tokens are 404.
// DELETE /api/v1/tokens/{id}
func (h *tokensAPIHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	if err := h.tokens.Revoke(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		writeDomainError(w, r, h.log, err, "token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
