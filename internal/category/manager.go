// Package category keeps category records and their cover images in the
// object store consistent across create, update and delete.
package category

import (
	"context"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/assets"
	"github.com/joestump/curated-links/internal/metrics"
	"github.com/joestump/curated-links/internal/store"
)

var (
	// ErrInvalidImage is returned when the embedded image cannot be decoded.
	ErrInvalidImage = assets.ErrInvalidImage

	// ErrUpload is returned when the object store rejects an upload.
	ErrUpload = errors.New("image upload failed")

	// ErrInvalidName is returned when a name is empty or has no slug-able characters.
	ErrInvalidName = errors.New("category name is invalid")
)

// NewCategory holds the fields supplied when a category is created.
// Image is a data URI.
type NewCategory struct {
	Name     string
	Content  string
	Image    string
	PostedBy string
}

// Update is a partial replacement. Nil fields keep their current value and an
// empty Image leaves the stored image untouched.
type Update struct {
	Name    *string
	Content *string
	Image   string
}

// Options configures a Manager.
type Options struct {
	// Prefix namespaces object keys, e.g. "category".
	Prefix string
	// Timeout bounds every object store call.
	Timeout time.Duration
}

// Manager sequences category persistence with object store uploads and
// deletes. A persisted category never references an object that was not
// successfully uploaded.
type Manager struct {
	categories *store.CategoryStore
	orphans    *store.OrphanStore
	assets     assets.Store
	opts       Options
	log        *zap.Logger
}

func NewManager(categories *store.CategoryStore, orphans *store.OrphanStore, as assets.Store, opts Options, log *zap.Logger) *Manager {
	if opts.Prefix == "" {
		opts.Prefix = "category"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Manager{
		categories: categories,
		orphans:    orphans,
		assets:     as,
		opts:       opts,
		log:        log.With(zap.String("component", "category")),
	}
}

// Create uploads the image and then persists the category. If the upload
// fails nothing is persisted. If persistence fails the uploaded object is
// released again.
func (m *Manager) Create(ctx context.Context, in NewCategory) (*store.Category, error) {
	name := strings.TrimSpace(in.Name)
	s := slug.Make(name)
	if s == "" {
		return nil, ErrInvalidName
	}

	// Avoid an upload for a slug that is known to be taken. The unique
	// index still decides races.
	if _, err := m.categories.GetBySlug(ctx, s); err == nil {
		return nil, store.ErrSlugTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	img, err := decode(in.Image)
	if err != nil {
		return nil, err
	}
	obj, err := m.upload(ctx, img)
	if err != nil {
		return nil, err
	}

	c, err := m.categories.Create(ctx, &store.Category{
		Name:     name,
		Slug:     s,
		Content:  in.Content,
		ImageURL: obj.URL,
		ImageKey: obj.Key,
		PostedBy: in.PostedBy,
	})
	if err != nil {
		m.release(ctx, obj.Key, "category create aborted")
		return nil, err
	}

	m.log.Info("category created",
		zap.String("slug", c.Slug),
		zap.String("image_key", c.ImageKey),
	)
	return c, nil
}

// Update replaces name and content and, when a new image is supplied,
// uploads it before swapping the stored url and key. The previous object is
// deleted on a best-effort basis afterwards. The slug never changes.
//
// An upload failure leaves the image fields as they were but the name and
// content changes stay persisted. A concurrent image replacement makes the
// later writer fail with store.ErrImageChanged.
func (m *Manager) Update(ctx context.Context, categorySlug string, in Update) (*store.Category, error) {
	var img *assets.Image
	if in.Image != "" {
		var err error
		if img, err = decode(in.Image); err != nil {
			return nil, err
		}
	}

	cur, err := m.categories.GetBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	name, content := cur.Name, cur.Content
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
	}
	if in.Content != nil {
		content = *in.Content
	}

	c, err := m.categories.UpdateFields(ctx, categorySlug, name, content)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return c, nil
	}

	obj, err := m.upload(ctx, img)
	if err != nil {
		return nil, err
	}
	// Swap only if the key is still the one read above.
	updated, err := m.categories.SetImage(ctx, c.ID, c.ImageKey, obj.URL, obj.Key)
	if err != nil {
		m.release(ctx, obj.Key, "category image swap aborted")
		return nil, err
	}
	if c.HasImage() && c.ImageKey != obj.Key {
		m.release(ctx, c.ImageKey, "category image replaced")
	}

	m.log.Info("category image replaced",
		zap.String("slug", updated.Slug),
		zap.String("old_key", c.ImageKey),
		zap.String("new_key", updated.ImageKey),
	)
	return updated, nil
}

// Remove deletes the category record and then its image object. A failed
// object delete is recorded as an orphan and does not fail the removal.
func (m *Manager) Remove(ctx context.Context, categorySlug string) error {
	c, err := m.categories.DeleteBySlug(ctx, categorySlug)
	if err != nil {
		return err
	}
	if c.HasImage() {
		m.release(ctx, c.ImageKey, "category removed")
	}
	m.log.Info("category removed", zap.String("slug", c.Slug))
	return nil
}

// ReapOrphans retries the delete of up to limit orphaned objects. Keys that
// are gone afterwards are cleared from the ledger.
func (m *Manager) ReapOrphans(ctx context.Context, limit int) (resolved, failed int, err error) {
	orphans, err := m.orphans.List(ctx, limit)
	if err != nil {
		return 0, 0, err
	}
	for _, o := range orphans {
		derr := m.delete(ctx, o.Key)
		if derr != nil && !errors.Is(derr, assets.ErrObjectNotFound) {
			failed++
			m.log.Warn("orphan delete failed",
				zap.String("key", o.Key),
				zap.Int("attempts", o.Attempts),
				zap.Error(derr),
			)
			if err := m.orphans.Record(ctx, o.Key, derr.Error()); err != nil {
				return resolved, failed, err
			}
			continue
		}
		if err := m.orphans.Resolve(ctx, o.Key); err != nil {
			return resolved, failed, err
		}
		resolved++
	}
	return resolved, failed, nil
}

func decode(uri string) (*assets.Image, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.Wrap(ErrInvalidImage, "image is required")
	}
	return assets.DecodeImage(uri)
}

func (m *Manager) upload(ctx context.Context, img *assets.Image) (*assets.Object, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	key := assets.NewObjectKey(m.opts.Prefix, img.Ext)
	obj, err := m.assets.Put(ctx, key, img.Data, img.ContentType)
	if err != nil {
		metrics.AssetOperationsTotal.WithLabelValues("put", "error").Inc()
		m.log.Error("asset upload failed", zap.String("key", key), zap.Error(err))
		return nil, errors.Wrapf(ErrUpload, "%v", err)
	}
	metrics.AssetOperationsTotal.WithLabelValues("put", "ok").Inc()
	return obj, nil
}

func (m *Manager) delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	if err := m.assets.Delete(ctx, key); err != nil {
		metrics.AssetOperationsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.AssetOperationsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

// release deletes key best-effort, detached from the caller's cancellation.
// Failures land in the orphan ledger.
func (m *Manager) release(ctx context.Context, key, reason string) {
	ctx = context.WithoutCancel(ctx)
	err := m.delete(ctx, key)
	if err == nil {
		return
	}

	metrics.OrphanedObjectsTotal.Inc()
	m.log.Warn("asset delete failed, object orphaned",
		zap.String("key", key),
		zap.String("reason", reason),
		zap.Error(err),
	)
	if rerr := m.orphans.Record(ctx, key, reason+": "+err.Error()); rerr != nil {
		m.log.Error("record orphaned object", zap.String("key", key), zap.Error(rerr))
	}
}
