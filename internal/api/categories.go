package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/auth"
	"github.com/joestump/curated-links/internal/category"
	"github.com/joestump/curated-links/internal/store"
)

// categoriesAPIHandler provides REST handlers for categories. Reads go to
// the store directly; writes go through the Manager so the cover image
// stays in step with the record.
type categoriesAPIHandler struct {
	manager    *category.Manager
	categories *store.CategoryStore
	links      *store.LinkStore
	log        *zap.Logger
}

// List returns every category ordered by name.
// GET /api/v1/categories
func (h *categoriesAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, r, h.log, err, "category")
		return
	}
	resp := &CategoryListResponse{Categories: make([]*CategoryResponse, 0, len(cats))}
	for _, c := range cats {
		resp.Categories = append(resp.Categories, toCategoryResponse(c))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// Get returns a category with a page of its links, newest first.
// GET /api/v1/categories/{slug}?limit=&skip=
func (h *categoriesAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeDomainError(w, r, h.log, err, "category")
		return
	}
	limit, skip := parsePage(r)
	links, err := h.links.ListByCategory(r.Context(), c.ID, limit, skip)
	if err != nil {
		writeDomainError(w, r, h.log, err, "category")
		return
	}
	writeJSON(w, r, http.StatusOK, &CategoryDetailResponse{
		Category: toCategoryResponse(c),
		Links:    toLinkResponses(links),
	})
}

// Create uploads the cover image and creates the category.
// POST /api/v1/categories (admin)
func (h *categoriesAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req CreateCategoryRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, h.log, err, "category")
		return
	}

	c, err := h.manager.Create(r.Context(), category.NewCategory{
		Name:     req.Name,
		Content:  req.Content,
		Image:    req.Image,
		PostedBy: user.ID,
	})
	if err != nil {
		writeDomainError(w, r, h.log, err, "category")
		return
	}
	writeJSON(w, r, http.StatusCreated, toCategoryResponse(c))
}

// Update changes name and content and optionally replaces the image.
// PUT /api/v1/categories/{slug} (admin)
func (h *categoriesAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCategoryRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, h.log, err, "category")
		return
	}

	c, err := h.manager.Update(r.Context(), chi.URLParam(r, "slug"), category.Update{
		Name:    req.Name,
		Content: req.Content,
		Image:   req.Image,
	})
	if err != nil {
		writeDomainError(w, r, h.log, err, "category")
		return
	}
	writeJSON(w, r, http.StatusOK, toCategoryResponse(c))
}

// Delete removes the category and releases its image.
// DELETE /api/v1/categories/{slug} (admin)
func (h *categoriesAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Remove(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeDomainError(w, r, h.log, err, "category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
