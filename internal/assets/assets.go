// Package assets is the client side of the binary object store that holds
// category cover images.
package assets

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Object describes an object that was successfully stored.
type Object struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Store puts and deletes publicly readable objects.
type Store interface {
	// Put stores body under key with public-read visibility and returns the
	// public URL and key.
	Put(ctx context.Context, key string, body []byte, contentType string) (*Object, error)
	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}

// NewObjectKey returns a fresh key of the form <prefix>/<uuid>.<ext>.
// Keys are never reused.
func NewObjectKey(prefix, ext string) string {
	prefix = strings.Trim(prefix, "/")
	name := uuid.New().String()
	if ext != "" {
		name += "." + ext
	}
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
