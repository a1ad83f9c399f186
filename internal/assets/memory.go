package assets

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrObjectNotFound is returned by MemoryStore.Delete for unknown keys.
var ErrObjectNotFound = errors.New("object not found")

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore is an in-process Store for local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memoryObject
}

// NewMemoryStore returns an empty store whose object URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://assets"
	}
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memoryObject),
	}
}

func (m *MemoryStore) Put(ctx context.Context, key string, body []byte, contentType string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := make([]byte, len(body))
	copy(data, body)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	return &Object{URL: m.baseURL + "/" + key, Key: key}, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return errors.Wrap(ErrObjectNotFound, key)
	}
	delete(m.objects, key)
	return nil
}

// Has reports whether key is stored.
func (m *MemoryStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// ContentType returns the content type recorded for key.
func (m *MemoryStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].contentType
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
