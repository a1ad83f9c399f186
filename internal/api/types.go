package api

import (
	"time"

	"github.com/joestump/curated-links/internal/auth"
	"github.com/joestump/curated-links/internal/store"
)

// --- Category types ---

// CreateCategoryRequest is the request body for POST /api/v1/categories.
// Image is a data URI such as "data:image/png;base64,...".
type CreateCategoryRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Content string `json:"content"`
	Image   string `json:"image" validate:"required"`
}

// UpdateCategoryRequest is the request body for PUT /api/v1/categories/{slug}.
// Omitted fields are left unchanged; the slug never changes.
type UpdateCategoryRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=100"`
	Content *string `json:"content"`
	Image   string  `json:"image"`
}

// ImageResponse describes a stored cover image.
type ImageResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// CategoryResponse is the JSON representation of a category.
type CategoryResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Content   string          `json:"content"`
	Image     *ImageResponse  `json:"image,omitempty"`
	PostedBy  UserRefResponse `json:"posted_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CategoryDetailResponse is a category with a page of its links.
type CategoryDetailResponse struct {
	Category *CategoryResponse `json:"category"`
	Links    []*LinkResponse   `json:"links"`
}

// CategoryListResponse lists all categories.
type CategoryListResponse struct {
	Categories []*CategoryResponse `json:"categories"`
}

func toCategoryResponse(c *store.Category) *CategoryResponse {
	resp := &CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		Content:   c.Content,
		PostedBy:  UserRefResponse{ID: c.PostedBy, Name: c.PostedByName},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.HasImage() {
		resp.Image = &ImageResponse{URL: c.ImageURL, Key: c.ImageKey}
	}
	return resp
}

// --- Link types ---

// CreateLinkRequest is the request body for POST /api/v1/links.
type CreateLinkRequest struct {
	Title      string   `json:"title" validate:"required,max=200"`
	URL        string   `json:"url" validate:"required,url"`
	Categories []string `json:"categories" validate:"dive,required"`
	Type       string   `json:"type" validate:"required,oneof=free paid"`
	Medium     string   `json:"medium" validate:"required,oneof=video book"`
}

// UpdateLinkRequest is the request body for PUT /api/v1/links/{id}.
// Omitted fields are left unchanged. Changing url also changes the slug.
type UpdateLinkRequest struct {
	Title      *string  `json:"title" validate:"omitempty,min=1,max=200"`
	URL        *string  `json:"url" validate:"omitempty,url"`
	Categories []string `json:"categories" validate:"omitempty,dive,required"`
	Type       *string  `json:"type" validate:"omitempty,oneof=free paid"`
	Medium     *string  `json:"medium" validate:"omitempty,oneof=video book"`
}

// UserRefResponse is the populated owner of a link.
type UserRefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryRefResponse is a populated category reference on a link.
type CategoryRefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// LinkResponse is the JSON representation of a single link.
type LinkResponse struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	URL        string                `json:"url"`
	Slug       string                `json:"slug"`
	Type       string                `json:"type"`
	Medium     string                `json:"medium"`
	Clicks     int64                 `json:"clicks"`
	PostedBy   UserRefResponse       `json:"posted_by"`
	Categories []CategoryRefResponse `json:"categories"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// LinkListResponse is the paginated response for link list endpoints.
type LinkListResponse struct {
	Links []*LinkResponse `json:"links"`
	Total int             `json:"total"`
	Limit int             `json:"limit"`
	Skip  int             `json:"skip"`
}

func toLinkResponse(l *store.Link) *LinkResponse {
	cats := make([]CategoryRefResponse, 0, len(l.Categories))
	for _, c := range l.Categories {
		cats = append(cats, CategoryRefResponse{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	return &LinkResponse{
		ID:         l.ID,
		Title:      l.Title,
		URL:        l.URL,
		Slug:       l.Slug,
		Type:       l.Type,
		Medium:     l.Medium,
		Clicks:     l.Clicks,
		PostedBy:   UserRefResponse{ID: l.PostedBy, Name: l.PostedByName},
		Categories: cats,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func toLinkResponses(links []*store.Link) []*LinkResponse {
	out := make([]*LinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, toLinkResponse(l))
	}
	return out
}

// --- Token types ---

// CreateTokenRequest is the request body for POST /api/v1/tokens.
// ExpiresIn is a Go duration such as "720h"; empty means no expiry.
type CreateTokenRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	ExpiresIn string `json:"expires_in,omitempty"`
}

// TokenResponse is the JSON representation of an API token. Token holds the
// plaintext and is only set in the create response.
type TokenResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Token      string     `json:"token,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
}

// TokenListResponse lists the caller's tokens.
type TokenListResponse struct {
	Tokens []*TokenResponse `json:"tokens"`
}

func toTokenResponse(t *auth.Token) *TokenResponse {
	resp := &TokenResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
	if t.LastUsedAt.Valid {
		v := t.LastUsedAt.Time
		resp.LastUsedAt = &v
	}
	if t.ExpiresAt.Valid {
		v := t.ExpiresAt.Time
		resp.ExpiresAt = &v
	}
	if t.RevokedAt.Valid {
		v := t.RevokedAt.Time
		resp.RevokedAt = &v
	}
	return resp
}

// --- User types ---

// UserResponse is the JSON representation of the caller.
type UserResponse struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Role          string              `json:"role"`
	Subscriptions []*CategoryResponse `json:"subscriptions"`
	CreatedAt     time.Time           `json:"created_at"`
}

// SubscriptionsRequest replaces the caller's subscription set.
type SubscriptionsRequest struct {
	Categories []string `json:"categories" validate:"dive,required"`
}
