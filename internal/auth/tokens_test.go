package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/curated-links/internal/auth"
	"github.com/joestump/curated-links/internal/store"
	"github.com/joestump/curated-links/internal/testutil"
)

func newTokenTestEnv(t *testing.T) (*auth.SQLTokenStore, *store.UserStore, *store.User) {
	t.Helper()
	db := testutil.NewTestDB(t)
	us := store.NewUserStore(db)
	u, err := us.Create(context.Background(), "Test User", "test@example.com", "")
	require.NoError(t, err)
	return auth.NewSQLTokenStore(db), us, u
}

func TestGenerateToken(t *testing.T) {
	plaintext, hash, err := auth.GenerateToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(plaintext, auth.TokenPrefix))
	assert.Len(t, plaintext, len(auth.TokenPrefix)+43)
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, auth.HashToken(plaintext))

	other, _, err := auth.GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, other)
}

func TestIssue_StoresOnlyHash(t *testing.T) {
	ts, _, u := newTokenTestEnv(t)
	ctx := context.Background()

	plaintext, tok, err := auth.Issue(ctx, ts, u.ID, " cli ", 0)
	require.NoError(t, err)
	assert.Equal(t, "cli", tok.Name)
	assert.NotEqual(t, plaintext, tok.TokenHash)
	assert.False(t, tok.ExpiresAt.Valid)

	got, err := ts.GetByHash(ctx, auth.HashToken(plaintext))
	require.NoError(t, err)
	assert.Equal(t, tok.ID, got.ID)
	assert.True(t, got.Active(time.Now()))
}

func TestIssue_WithTTL(t *testing.T) {
	ts, _, u := newTokenTestEnv(t)

	_, tok, err := auth.Issue(context.Background(), ts, u.ID, "short", time.Hour)
	require.NoError(t, err)
	require.True(t, tok.ExpiresAt.Valid)
	assert.True(t, tok.Active(time.Now()))
	assert.False(t, tok.Active(time.Now().Add(2*time.Hour)))
}

func TestTokenStore_GetByHash_NotFound(t *testing.T) {
	ts, _, _ := newTokenTestEnv(t)
	_, err := ts.GetByHash(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTokenStore_ListAndRevoke(t *testing.T) {
	ts, us, u := newTokenTestEnv(t)
	ctx := context.Background()

	_, a, err := auth.Issue(ctx, ts, u.ID, "a", 0)
	require.NoError(t, err)
	_, _, err = auth.Issue(ctx, ts, u.ID, "b", 0)
	require.NoError(t, err)

	list, err := ts.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	other, err := us.Create(ctx, "Other", "other@example.com", "")
	require.NoError(t, err)
	assert.ErrorIs(t, ts.Revoke(ctx, a.ID, other.ID), store.ErrNotFound, "cannot revoke another user's token")
	assert.ErrorIs(t, ts.Revoke(ctx, "missing", u.ID), store.ErrNotFound)

	require.NoError(t, ts.Revoke(ctx, a.ID, u.ID))
	got, err := ts.GetByHash(ctx, a.TokenHash)
	require.NoError(t, err)
	assert.True(t, got.RevokedAt.Valid)
	assert.False(t, got.Active(time.Now()))
}

func TestTokenStore_Touch(t *testing.T) {
	ts, _, u := newTokenTestEnv(t)
	ctx := context.Background()

	_, tok, err := auth.Issue(ctx, ts, u.ID, "a", 0)
	require.NoError(t, err)
	require.NoError(t, ts.Touch(ctx, tok.ID))

	got, err := ts.GetByHash(ctx, tok.TokenHash)
	require.NoError(t, err)
	assert.True(t, got.LastUsedAt.Valid)
}
