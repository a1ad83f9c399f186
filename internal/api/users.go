package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/auth"
	"github.com/joestump/curated-links/internal/store"
)

// usersAPIHandler provides REST handlers for the caller's profile.
type usersAPIHandler struct {
	users *store.UserStore
	log   *zap.Logger
}

// Me returns the caller with their subscriptions.
// GET /api/v1/users/me
func (h *usersAPIHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.writeMe(w, r, auth.UserFromContext(r.Context()))
}

// SetSubscriptions replaces the caller's subscription set.
// PUT /api/v1/users/me/subscriptions
func (h *usersAPIHandler) SetSubscriptions(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req SubscriptionsRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, h.log, err, "user")
		return
	}
	if err := h.users.SetSubscriptions(r.Context(), user.ID, req.Categories); err != nil {
		writeDomainError(w, r, h.log, err, "user")
		return
	}
	h.writeMe(w, r, user)
}

func (h *usersAPIHandler) writeMe(w http.ResponseWriter, r *http.Request, user *store.User) {
	subs, err := h.users.ListSubscriptions(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, r, h.log, err, "user")
		return
	}
	resp := &UserResponse{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		Subscriptions: make([]*CategoryResponse, 0, len(subs)),
		CreatedAt:     user.CreatedAt,
	}
	for _, c := range subs {
		resp.Subscriptions = append(resp.Subscriptions, toCategoryResponse(c))
	}
	writeJSON(w, r, http.StatusOK, resp)
}
