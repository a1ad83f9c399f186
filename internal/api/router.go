// Package api is the JSON REST API mounted at /api/v1.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/auth"
	"github.com/joestump/curated-links/internal/category"
	"github.com/joestump/curated-links/internal/links"
	"github.com/joestump/curated-links/internal/store"
)

// Deps holds all dependencies required to build the router.
type Deps struct {
	Auth       *auth.Authenticator
	Categories *category.Manager
	Publisher  *links.Publisher
	CategoryDB *store.CategoryStore
	LinkDB     *store.LinkStore
	UserDB     *store.UserStore
	TokenDB    auth.TokenStore
	Logger     *zap.Logger
}

// NewRouter builds the HTTP handler: /healthz, /metrics and the API under
// /api/v1. Reads are public; writes need a bearer token and category
// writes need the admin role.
func NewRouter(deps Deps) http.Handler {
	log := deps.Logger.With(zap.String("component", "api"))

	categories := &categoriesAPIHandler{
		manager:    deps.Categories,
		categories: deps.CategoryDB,
		links:      deps.LinkDB,
		log:        log,
	}
	linksH := &linksAPIHandler{
		publisher:  deps.Publisher,
		links:      deps.LinkDB,
		categories: deps.CategoryDB,
		log:        log,
	}
	tokens := &tokensAPIHandler{tokens: deps.TokenDB, log: log}
	users := &usersAPIHandler{users: deps.UserDB, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/categories", categories.List)
		r.Get("/categories/{slug}", categories.Get)
		r.Get("/links", linksH.List)
		r.Get("/links/popular", linksH.Popular)
		r.Get("/links/popular/{slug}", linksH.PopularInCategory)
		r.Get("/links/{id}", linksH.Get)
		r.Put("/links/{id}/clicks", linksH.Click)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireUser)

			r.Post("/links", linksH.Create)
			r.Put("/links/{id}", linksH.Update)
			r.Delete("/links/{id}", linksH.Delete)

			r.Get("/tokens", tokens.List)
			r.Post("/tokens", tokens.Create)
			r.Delete("/tokens/{id}", tokens.Revoke)

			r.Get("/users/me", users.Me)
			r.Put("/users/me/subscriptions", users.SetSubscriptions)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole("admin"))
				r.Post("/categories", categories.Create)
				r.Put("/categories/{slug}", categories.Update)
				r.Delete("/categories/{slug}", categories.Delete)
			})
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusNotFound, "not found", "NOT_FOUND")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
		})
	})

	return r
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
