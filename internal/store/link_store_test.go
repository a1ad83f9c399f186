package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/curated-links/internal/store"
)

func TestLinkStore_Create_SlugIsURL(t *testing.T) {
	env := newTestEnv(t)
	c := seedCategory(t, env, "Go", "go")

	l := seedLink(t, env, "Tour", "https://go.dev/tour", c.ID)
	assert.Equal(t, "https://go.dev/tour", l.Slug)
	assert.Equal(t, l.URL, l.Slug)
	assert.Equal(t, int64(0), l.Clicks)
	assert.Equal(t, "Test User", l.PostedByName)
	require.Len(t, l.Categories, 1)
	assert.Equal(t, "Go", l.Categories[0].Name)
}

func TestLinkStore_Create_DuplicateURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedLink(t, env, "X", "https://x.example/1")

	_, err := env.Links.Create(ctx, store.NewLink{
		Title: "Y", URL: "https://x.example/1", Type: "free", Medium: "book", PostedBy: env.UserID,
	})
	assert.ErrorIs(t, err, store.ErrSlugTaken)

	n, err := env.Links.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLinkStore_Create_UnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Links.Create(ctx, store.NewLink{
		Title: "X", URL: "https://x.example/1", Type: "free", Medium: "book",
		PostedBy: env.UserID, CategoryIDs: []string{"does-not-exist"},
	})
	assert.ErrorIs(t, err, store.ErrUnknownCategory)

	n, err := env.Links.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestLinkStore_Create_PreservesCategoryOrder(t *testing.T) {
	env := newTestEnv(t)
	a := seedCategory(t, env, "Alpha", "alpha")
	b := seedCategory(t, env, "Beta", "beta")

	l := seedLink(t, env, "X", "https://x.example/1", b.ID, a.ID)
	assert.Equal(t, []string{b.ID, a.ID}, l.CategoryIDs())
}

func TestLinkStore_List_NewestFirstWithPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		seedLink(t, env, fmt.Sprintf("Link %d", i), fmt.Sprintf("https://x.example/%d", i))
		time.Sleep(2 * time.Millisecond)
	}

	page, err := env.Links.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Link 4", page[0].Title)
	assert.Equal(t, "Link 3", page[1].Title)

	page, err = env.Links.List(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Link 0", page[0].Title)
}

func TestLinkStore_ListByCategory(t *testing.T) {
	env := newTestEnv(t)
	a := seedCategory(t, env, "Alpha", "alpha")
	b := seedCategory(t, env, "Beta", "beta")
	seedLink(t, env, "A1", "https://a.example/1", a.ID)
	seedLink(t, env, "B1", "https://b.example/1", b.ID)
	seedLink(t, env, "AB", "https://ab.example/1", a.ID, b.ID)

	links, err := env.Links.ListByCategory(context.Background(), a.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, l := range links {
		assert.Contains(t, l.CategoryIDs(), a.ID)
	}
}

func TestLinkStore_Update_Partial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := seedCategory(t, env, "Go", "go")
	l := seedLink(t, env, "Tour", "https://go.dev/tour", c.ID)

	title := "A Tour of Go"
	got, err := env.Links.Update(ctx, l.ID, store.LinkUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "A Tour of Go", got.Title)
	assert.Equal(t, "https://go.dev/tour", got.URL)
	assert.Equal(t, "free", got.Type)
	assert.Equal(t, []string{c.ID}, got.CategoryIDs())
}

func TestLinkStore_Update_URLMovesSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	l := seedLink(t, env, "Tour", "https://go.dev/tour")
	seedLink(t, env, "Doc", "https://go.dev/doc")

	url := "https://go.dev/tour/welcome"
	got, err := env.Links.Update(ctx, l.ID, store.LinkUpdate{URL: &url})
	require.NoError(t, err)
	assert.Equal(t, url, got.Slug)

	taken := "https://go.dev/doc"
	_, err = env.Links.Update(ctx, l.ID, store.LinkUpdate{URL: &taken})
	assert.ErrorIs(t, err, store.ErrSlugTaken)
}

func TestLinkStore_Update_ReplacesCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := seedCategory(t, env, "Alpha", "alpha")
	b := seedCategory(t, env, "Beta", "beta")
	l := seedLink(t, env, "X", "https://x.example/1", a.ID)

	got, err := env.Links.Update(ctx, l.ID, store.LinkUpdate{CategoryIDs: []string{b.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, got.CategoryIDs())
}

func TestLinkStore_Update_NotFound(t *testing.T) {
	env := newTestEnv(t)
	title := "x"
	_, err := env.Links.Update(context.Background(), "missing", store.LinkUpdate{Title: &title})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLinkStore_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	l := seedLink(t, env, "X", "https://x.example/1")

	require.NoError(t, env.Links.Delete(ctx, l.ID))
	_, err := env.Links.GetByID(ctx, l.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, env.Links.Delete(ctx, l.ID), store.ErrNotFound)
}

func TestLinkStore_IncrementClicks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	l := seedLink(t, env, "X", "https://x.example/1")

	got, err := env.Links.IncrementClicks(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Clicks)

	_, err = env.Links.IncrementClicks(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLinkStore_IncrementClicks_ConcurrentNoLostUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	l := seedLink(t, env, "X", "https://x.example/1")

	// Start from a non-zero value V.
	for i := 0; i < 3; i++ {
		_, err := env.Links.IncrementClicks(ctx, l.ID)
		require.NoError(t, err)
	}

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.Links.IncrementClicks(ctx, l.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := env.Links.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3+n), got.Clicks)
}

func TestLinkStore_Popular(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := seedCategory(t, env, "Alpha", "alpha")

	var links []*store.Link
	for i := 0; i < 7; i++ {
		var cats []string
		if i%2 == 0 {
			cats = []string{a.ID}
		}
		links = append(links, seedLink(t, env, fmt.Sprintf("L%d", i), fmt.Sprintf("https://x.example/%d", i), cats...))
	}
	// L6 gets 6 clicks, L5 gets 5, ...
	for i, l := range links {
		for j := 0; j < i; j++ {
			_, err := env.Links.IncrementClicks(ctx, l.ID)
			require.NoError(t, err)
		}
	}

	top, err := env.Links.Popular(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 5)
	assert.Equal(t, "L6", top[0].Title)
	assert.Equal(t, "L2", top[4].Title)

	inCat, err := env.Links.PopularInCategory(ctx, a.ID, 5)
	require.NoError(t, err)
	require.Len(t, inCat, 4)
	assert.Equal(t, []string{"L6", "L4", "L2", "L0"}, []string{inCat[0].Title, inCat[1].Title, inCat[2].Title, inCat[3].Title})
}
