package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/auth"
	"github.com/joestump/curated-links/internal/links"
	"github.com/joestump/curated-links/internal/metrics"
	"github.com/joestump/curated-links/internal/store"
)

// linksAPIHandler provides REST handlers for links.
type linksAPIHandler struct {
	publisher  *links.Publisher
	links      *store.LinkStore
	categories *store.CategoryStore
	log        *zap.Logger
}

// List returns links newest first.
// GET /api/v1/links?limit=&skip=
func (h *linksAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePage(r)
	list, err := h.links.List(r.Context(), limit, skip)
	if err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return
	}
	total, err := h.links.Count(r.Context())
	if err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return
	}
	writeJSON(w, r, http.StatusOK, &LinkListResponse{
		Links: toLinkResponses(list),
		Total: total,
		Limit: limit,
		Skip:  skip,
	})
}

// Get returns a single link by ID.
// GET /api/v1/links/{id}
func (h *linksAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.links.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return
	}
	writeJSON(w, r, http.StatusOK, toLinkResponse(l))
}

// Create publishes a link. Subscribers are notified after the response.
// POST /api/v1/links
func (h *linksAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req CreateLinkRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return
	}

	l, err := h.publisher.Publish(r.Context(), links.PublishRequest{
		Title:       req.Title,
		URL:         req.URL,
		Type:        req.Type,
		Medium:      req.Medium,
		CategoryIDs: req.Categories,
		PostedBy:    user.ID,
	})
	if err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return
	}
	writeJSON(w, r, http.StatusCreated, toLinkResponse(l))
}

// Update applies a partial update. Owner or admin only.
// PUT /api/v1/links/{id}
func (h *linksAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorize(w, r, id) {
		return
	}

	var req UpdateLinkRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return
	}

	l, err := h.publisher.Update(r.Context(), id, store.LinkUpdate{
		Title:       req.Title,
		URL:         req.URL,
		Type:        req.Type,
		Medium:      req.Medium,
		CategoryIDs: req.Categories,
	})
	if err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return
	}
	writeJSON(w, r, http.StatusOK, toLinkResponse(l))
}

// Delete removes a link. Owner or admin only.
// DELETE /api/v1/links/{id}
func (h *linksAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.authorize(w, r, id) {
		return
	}
	if err := h.links.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Click atomically increments the click counter.
// PUT /api/v1/links/{id}/clicks
func (h *linksAPIHandler) Click(w http.ResponseWriter, r *http.Request) {
	l, err := h.links.IncrementClicks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return
	}
	metrics.ClicksTotal.Inc()
	writeJSON(w, r, http.StatusOK, toLinkResponse(l))
}

// Popular returns the most clicked links.
// GET /api/v1/links/popular
func (h *linksAPIHandler) Popular(w http.ResponseWriter, r *http.Request) {
	list, err := h.links.Popular(r.Context(), popularLimit)
	if err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return
	}
	writeJSON(w, r, http.StatusOK, &LinkListResponse{
		Links: toLinkResponses(list),
		Total: len(list),
		Limit: popularLimit,
	})
}

// PopularInCategory returns the most clicked links of a category.
// GET /api/v1/links/popular/{slug}
func (h *linksAPIHandler) PopularInCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeDomainError(w, r, h.log, err, "category")
		return
	}
	list, err := h.links.PopularInCategory(r.Context(), c.ID, popularLimit)
	if err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return
	}
	writeJSON(w, r, http.StatusOK, &LinkListResponse{
		Links: toLinkResponses(list),
		Total: len(list),
		Limit: popularLimit,
	})
}

// authorize writes 404 or 403 and returns false unless the caller owns the
// link or is an admin.
func (h *linksAPIHandler) authorize(w http.ResponseWriter, r *http.Request, id string) bool {
	user := auth.UserFromContext(r.Context())
	l, err := h.links.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.log, err, "link")
		return false
	}
	if l.PostedBy != user.ID && !user.IsAdmin() {
		writeError(w, r, http.StatusForbidden, "forbidden", "FORBIDDEN")
		return false
	}
	return true
}
