package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

// Authenticator resolves the bearer token of a request to its user.
type Authenticator struct {
	tokens TokenStore
	users  *store.UserStore
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthenticator(tokens TokenStore, users *store.UserStore, log *zap.Logger) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		users:  users,
		log:    log.With(zap.String("component", "auth")),
		now:    time.Now,
	}
}

// RequireUser rejects requests without an active bearer token with 401 and
// otherwise stores the token owner on the request context.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		plaintext, ok := bearerToken(r)
		if !ok {
			deny(w, r, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
			return
		}

		tok, err := a.tokens.GetByHash(r.Context(), HashToken(plaintext))
		if err != nil || !tok.Active(a.now()) {
			deny(w, r, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
			return
		}

		user, err := a.users.GetByID(r.Context(), tok.UserID)
		if err != nil {
			deny(w, r, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
			return
		}

		if err := a.tokens.Touch(r.Context(), tok.ID); err != nil {
			a.log.Warn("update token last_used_at", zap.String("token_id", tok.ID), zap.Error(err))
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireRole returns a middleware that allows only users with role.
// It must run after RequireUser.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				deny(w, r, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
				return
			}
			if user.Role != role {
				deny(w, r, http.StatusForbidden, "forbidden", "FORBIDDEN")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *store.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext retrieves the authenticated user from the context.
func UserFromContext(ctx context.Context) *store.User {
	u, _ := ctx.Value(userContextKey).(*store.User)
	return u
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

func deny(w http.ResponseWriter, r *http.Request, status int, msg, code string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg, "code": code})
}
