package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joestump/curated-links/internal/store"
	"github.com/joestump/curated-links/internal/testutil"
)

type testEnv struct {
	Users      *store.UserStore
	Categories *store.CategoryStore
	Links      *store.LinkStore
	Orphans    *store.OrphanStore
	UserID     string
}

// newTestEnv creates a full test environment sharing the same DB with one seeded user.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	env := &testEnv{
		Users:      store.NewUserStore(db),
		Categories: store.NewCategoryStore(db),
		Links:      store.NewLinkStore(db),
		Orphans:    store.NewOrphanStore(db),
	}
	u, err := env.Users.Create(context.Background(), "Test User", "test@example.com", "")
	require.NoError(t, err)
	env.UserID = u.ID
	return env
}

func seedCategory(t *testing.T, env *testEnv, name, slug string) *store.Category {
	t.Helper()
	c, err := env.Categories.Create(context.Background(), &store.Category{
		Name:     name,
		Slug:     slug,
		Content:  name + " resources",
		ImageURL: "https://assets.example.com/category/" + slug + ".png",
		ImageKey: "category/" + slug + ".png",
		PostedBy: env.UserID,
	})
	require.NoError(t, err)
	return c
}

func seedLink(t *testing.T, env *testEnv, title, url string, categoryIDs ...string) *store.Link {
	t.Helper()
	l, err := env.Links.Create(context.Background(), store.NewLink{
		Title:       title,
		URL:         url,
		Type:        "free",
		Medium:      "video",
		PostedBy:    env.UserID,
		CategoryIDs: categoryIDs,
	})
	require.NoError(t, err)
	return l
}
