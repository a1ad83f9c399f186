package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joestump/curated-links/internal/api"
	"github.com/joestump/curated-links/internal/assets"
	"github.com/joestump/curated-links/internal/auth"
	"github.com/joestump/curated-links/internal/category"
	"github.com/joestump/curated-links/internal/links"
	"github.com/joestump/curated-links/internal/store"
	"github.com/joestump/curated-links/internal/testutil"
)

var pngBytes, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

// recordingAssets is a MemoryStore that records deletes and can fail puts.
type recordingAssets struct {
	*assets.MemoryStore

	mu      sync.Mutex
	failPut bool
	deletes []string
}

func (a *recordingAssets) Put(ctx context.Context, key string, body []byte, ct string) (*assets.Object, error) {
	a.mu.Lock()
	fail := a.failPut
	a.mu.Unlock()
	if fail {
		return nil, context.DeadlineExceeded
	}
	return a.MemoryStore.Put(ctx, key, body, ct)
}

func (a *recordingAssets) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	a.deletes = append(a.deletes, key)
	a.mu.Unlock()
	return a.MemoryStore.Delete(ctx, key)
}

// recordingQueue captures links handed to the notification queue.
type recordingQueue struct {
	mu    sync.Mutex
	links []*store.Link
}

func (q *recordingQueue) Enqueue(l *store.Link) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.links = append(q.links, l)
	return true
}

func (q *recordingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.links)
}

// testEnv holds all stores and helpers needed for API integration tests.
type testEnv struct {
	Router     http.Handler
	Users      *store.UserStore
	Categories *store.CategoryStore
	Links      *store.LinkStore
	Tokens     *auth.SQLTokenStore
	Assets     *recordingAssets
	Queue      *recordingQueue
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// and wires up the full router with real stores and an in-memory object store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := zaptest.NewLogger(t)

	env := &testEnv{
		Users:      store.NewUserStore(db),
		Categories: store.NewCategoryStore(db),
		Links:      store.NewLinkStore(db),
		Tokens:     auth.NewSQLTokenStore(db),
		Assets:     &recordingAssets{MemoryStore: assets.NewMemoryStore("https://cdn.example.com")},
		Queue:      &recordingQueue{},
	}
	env.Router = api.NewRouter(api.Deps{
		Auth: auth.NewAuthenticator(env.Tokens, env.Users, log),
		Categories: category.NewManager(env.Categories, store.NewOrphanStore(db), env.Assets,
			category.Options{Prefix: "category", Timeout: time.Second}, log),
		Publisher:  links.NewPublisher(env.Links, env.Queue, log),
		CategoryDB: env.Categories,
		LinkDB:     env.Links,
		UserDB:     env.Users,
		TokenDB:    env.Tokens,
		Logger:     log,
	})
	return env
}

// seedUser creates a user and returns a bearer token for it.
func seedUser(t *testing.T, env *testEnv, email, role string) (*store.User, string) {
	t.Helper()
	ctx := context.Background()
	u, err := env.Users.Create(ctx, email, email, role)
	require.NoError(t, err)
	token, _, err := auth.Issue(ctx, env.Tokens, u.ID, "test-token", 0)
	require.NoError(t, err)
	return u, token
}

func seedCategory(t *testing.T, env *testEnv, name, slug, ownerID string) *store.Category {
	t.Helper()
	c, err := env.Categories.Create(context.Background(), &store.Category{
		Name: name, Slug: slug, ImageURL: "https://cdn.example.com/x.png", ImageKey: "category/x.png", PostedBy: ownerID,
	})
	require.NoError(t, err)
	return c
}

func seedLink(t *testing.T, env *testEnv, url, ownerID string, categoryIDs ...string) *store.Link {
	t.Helper()
	l, err := env.Links.Create(context.Background(), store.NewLink{
		Title: "T " + url, URL: url, Type: "free", Medium: "video", PostedBy: ownerID, CategoryIDs: categoryIDs,
	})
	require.NoError(t, err)
	return l
}

// call performs a request against the router. body may be nil.
func call(t *testing.T, env *testEnv, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}
