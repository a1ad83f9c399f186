package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Category represents a row in the categories table. ImageURL and ImageKey
// are either both set or both empty.
type Category struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Slug      string    `db:"slug"`
	Content   string    `db:"content"`
	ImageURL  string    `db:"image_url"`
	ImageKey  string    `db:"image_key"`
	PostedBy  string    `db:"posted_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// PostedByName is populated from users on read.
	PostedByName string `db:"posted_by_name"`
}

// HasImage reports whether the category references a stored object.
func (c *Category) HasImage() bool {
	return c.ImageKey != ""
}

const categorySelect = `
	SELECT c.id, c.name, c.slug, c.content, c.image_url, c.image_key, c.posted_by,
	       COALESCE(u.name, '') AS posted_by_name, c.created_at, c.updated_at
	FROM categories c
	LEFT JOIN users u ON u.id = c.posted_by`

// CategoryStore is the sqlx-backed persistence for categories.
type CategoryStore struct {
	db *sqlx.DB
}

func NewCategoryStore(db *sqlx.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts c with a fresh id and timestamps. Returns ErrSlugTaken if
// the slug already exists.
func (s *CategoryStore) Create(ctx context.Context, c *Category) (*Category, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO categories (id, name, slug, content, image_url, image_key, posted_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), id, c.Name, c.Slug, c.Content, c.ImageURL, c.ImageKey, c.PostedBy, now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetBySlug returns the category matching slug, or ErrNotFound.
func (s *CategoryStore) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	return getCategory(ctx, s.db, categorySelect+` WHERE c.slug = ?`, slug)
}

// GetByID returns the category matching id, or ErrNotFound.
func (s *CategoryStore) GetByID(ctx context.Context, id string) (*Category, error) {
	return getCategory(ctx, s.db, categorySelect+` WHERE c.id = ?`, id)
}

// ListAll returns all categories ordered by name.
func (s *CategoryStore) ListAll(ctx context.Context) ([]*Category, error) {
	var cats []*Category
	err := s.db.SelectContext(ctx, &cats, categorySelect+` ORDER BY c.name ASC`)
	if err != nil {
		return nil, err
	}
	return cats, nil
}

// ListByIDs returns the categories whose id is in ids. Unknown ids are skipped.
func (s *CategoryStore) ListByIDs(ctx context.Context, ids []string) ([]*Category, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(categorySelect+` WHERE c.id IN (?) ORDER BY c.name ASC`, ids)
	if err != nil {
		return nil, err
	}
	var cats []*Category
	if err := s.db.SelectContext(ctx, &cats, s.q(query), args...); err != nil {
		return nil, err
	}
	return cats, nil
}

// UpdateFields replaces name and content of the category matching slug.
// The slug itself is never regenerated.
func (s *CategoryStore) UpdateFields(ctx context.Context, slug, name, content string) (*Category, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c, err := getCategory(ctx, tx, categorySelect+` WHERE c.slug = ?`, slug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE categories SET name = ?, content = ?, updated_at = ? WHERE id = ?
	`), name, content, now, c.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	c.Name, c.Content, c.UpdatedAt = name, content, now
	return c, nil
}

// SetImage writes both image fields of the category matching id in a single
// statement, provided its image key is still expectedKey. Returns
// ErrImageChanged if another writer swapped the image in between.
func (s *CategoryStore) SetImage(ctx context.Context, id, expectedKey, url, key string) (*Category, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE categories SET image_url = ?, image_key = ?, updated_at = ?
		WHERE id = ? AND image_key = ?
	`), url, key, now, id, expectedKey)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	c, err := getCategory(ctx, tx, categorySelect+` WHERE c.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrImageChanged
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteBySlug removes the category matching slug along with its link and
// subscription associations, and returns the removed record.
func (s *CategoryStore) DeleteBySlug(ctx context.Context, slug string) (*Category, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c, err := getCategory(ctx, tx, categorySelect+` WHERE c.slug = ?`, slug)
	if err != nil {
		return nil, err
	}

	for _, stmt := range []string{
		`DELETE FROM link_categories WHERE category_id = ?`,
		`DELETE FROM user_categories WHERE category_id = ?`,
		`DELETE FROM categories WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), c.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return c, nil
}

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

func getCategory(ctx context.Context, db queryer, query string, arg string) (*Category, error) {
	var c Category
	err := db.GetContext(ctx, &c, db.Rebind(query), arg)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
