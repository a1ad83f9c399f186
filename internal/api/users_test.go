package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/curated-links/internal/api"
)

func TestUsers_MeAndSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	u, token := seedUser(t, env, "alice@example.com", "")
	a := seedCategory(t, env, "Alpha", "alpha", u.ID)
	b := seedCategory(t, env, "Beta", "beta", u.ID)

	rec := call(t, env, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[api.UserResponse](t, rec)
	assert.Equal(t, u.ID, me.ID)
	assert.Equal(t, "user", me.Role)
	assert.Empty(t, me.Subscriptions)

	rec = call(t, env, http.MethodPut, "/api/v1/users/me/subscriptions", token, map[string][]string{
		"categories": {a.ID, b.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me = decodeBody[api.UserResponse](t, rec)
	require.Len(t, me.Subscriptions, 2)
	assert.Equal(t, "alpha", me.Subscriptions[0].Slug)

	rec = call(t, env, http.MethodPut, "/api/v1/users/me/subscriptions", token, map[string][]string{
		"categories": {"missing"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_CATEGORY", decodeBody[api.ErrorResponse](t, rec).Code)
}

func TestUsers_MeRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	rec := call(t, env, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := call(t, env, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
