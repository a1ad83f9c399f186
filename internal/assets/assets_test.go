package assets_test

import (
	"context"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/curated-links/internal/assets"
)

// 1x1 transparent PNG.
var pngBytes, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func TestNewObjectKey(t *testing.T) {
	re := regexp.MustCompile(`^category/[0-9a-f-]{36}\.png$`)

	a := assets.NewObjectKey("category", "png")
	b := assets.NewObjectKey("/category/", "png")
	assert.Regexp(t, re, a)
	assert.Regexp(t, re, b)
	assert.NotEqual(t, a, b)

	assert.Regexp(t, `^[0-9a-f-]{36}$`, assets.NewObjectKey("", ""))
}

func TestDecodeImage(t *testing.T) {
	img, err := assets.DecodeImage(pngDataURI())
	require.NoError(t, err)
	assert.Equal(t, pngBytes, img.Data)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Ext)
}

func TestDecodeImage_SubtypeSuffix(t *testing.T) {
	uri := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte("<svg/>"))
	img, err := assets.DecodeImage(uri)
	require.NoError(t, err)
	assert.Equal(t, "svg", img.Ext)
	assert.Equal(t, "image/svg+xml", img.ContentType)
}

func TestDecodeImage_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"not a uri": "hello",
		"not image": "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hi")),
		"no data":   "data:image/png;base64,",
	}
	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := assets.DecodeImage(uri)
			assert.ErrorIs(t, err, assets.ErrInvalidImage)
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := assets.NewMemoryStore("https://cdn.example.com/")

	obj, err := m.Put(ctx, "category/a.png", pngBytes, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/category/a.png", obj.URL)
	assert.Equal(t, "category/a.png", obj.Key)
	assert.True(t, m.Has("category/a.png"))
	assert.Equal(t, "image/png", m.ContentType("category/a.png"))
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(ctx, "category/a.png"))
	assert.False(t, m.Has("category/a.png"))
	assert.ErrorIs(t, m.Delete(ctx, "category/a.png"), assets.ErrObjectNotFound)
}
