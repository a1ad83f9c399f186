package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joestump/curated-links/internal/auth"
	"github.com/joestump/curated-links/internal/store"
)

// whoami echoes the authenticated user's email.
func whoami() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := auth.UserFromContext(r.Context())
		if u == nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(u.Email))
	})
}

func do(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuthenticator_RequireUser(t *testing.T) {
	ts, us, u := newTokenTestEnv(t)
	ctx := context.Background()
	a := auth.NewAuthenticator(ts, us, zaptest.NewLogger(t))
	h := a.RequireUser(whoami())

	valid, _, err := auth.Issue(ctx, ts, u.ID, "valid", 0)
	require.NoError(t, err)
	revoked, rtok, err := auth.Issue(ctx, ts, u.ID, "revoked", 0)
	require.NoError(t, err)
	require.NoError(t, ts.Revoke(ctx, rtok.ID, u.ID))
	expired, _, err := auth.Issue(ctx, ts, u.ID, "expired", time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	rr := do(h, valid)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "test@example.com", rr.Body.String())

	for name, tok := range map[string]string{
		"missing": "",
		"unknown": "cl_doesnotexist",
		"revoked": revoked,
		"expired": expired,
	} {
		rr := do(h, tok)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, name)
		assert.JSONEq(t, `{"error":"unauthorized","code":"UNAUTHORIZED"}`, rr.Body.String(), name)
	}
}

func TestAuthenticator_RequireUser_NonBearerScheme(t *testing.T) {
	ts, us, _ := newTokenTestEnv(t)
	h := auth.NewAuthenticator(ts, us, zaptest.NewLogger(t)).RequireUser(whoami())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole(t *testing.T) {
	h := auth.RequireRole("admin")(whoami())

	serve := func(u *store.User) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if u != nil {
			req = req.WithContext(auth.WithUser(req.Context(), u))
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&store.User{Email: "u@example.com", Role: "user"}))
	assert.Equal(t, http.StatusOK, serve(&store.User{Email: "a@example.com", Role: "admin"}))
}
