package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Link represents a row in the links table with its owner name and
// categories populated. Slug always equals URL.
type Link struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	URL          string    `db:"url"`
	Slug         string    `db:"slug"`
	Type         string    `db:"type"`
	Medium       string    `db:"medium"`
	Clicks       int64     `db:"clicks"`
	PostedBy     string    `db:"posted_by"`
	PostedByName string    `db:"posted_by_name"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	Categories []CategoryRef `db:"-"`
}

// CategoryIDs returns the ids of the link's categories in their stored order.
func (l *Link) CategoryIDs() []string {
	ids := make([]string, 0, len(l.Categories))
	for _, c := range l.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// CategoryRef is the display subset of a category populated onto a link.
type CategoryRef struct {
	ID   string `db:"id"`
	Name string `db:"name"`
	Slug string `db:"slug"`
}

// NewLink holds the fields supplied when a link is created.
type NewLink struct {
	Title       string
	URL         string
	Type        string
	Medium      string
	PostedBy    string
	CategoryIDs []string
}

// LinkUpdate is a partial replacement: nil fields are left untouched.
// A nil CategoryIDs leaves the category set unchanged.
type LinkUpdate struct {
	Title       *string
	URL         *string
	Type        *string
	Medium      *string
	CategoryIDs []string
}

const linkSelect = `
	SELECT l.id, l.title, l.url, l.slug, l.type, l.medium, l.clicks, l.posted_by,
	       COALESCE(u.name, '') AS posted_by_name, l.created_at, l.updated_at
	FROM links l
	LEFT JOIN users u ON u.id = l.posted_by`

// LinkStore is the sqlx-backed persistence for links.
type LinkStore struct {
	db *sqlx.DB
}

func NewLinkStore(db *sqlx.DB) *LinkStore {
	return &LinkStore{db: db}
}

func (s *LinkStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts a new link with slug = URL and attaches its categories.
// Returns ErrSlugTaken when the URL is already used by another link and
// ErrUnknownCategory when a category id does not exist.
func (s *LinkStore) Create(ctx context.Context, in NewLink) (*Link, error) {
	ids := dedupe(in.CategoryIDs)
	id := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := ensureCategoriesExist(ctx, tx, ids); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO links (id, title, url, slug, type, medium, clicks, posted_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
	`), id, in.Title, in.URL, in.URL, in.Type, in.Medium, in.PostedBy, now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	if err := setLinkCategories(ctx, tx, id, ids); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the populated link matching id, or ErrNotFound.
func (s *LinkStore) GetByID(ctx context.Context, id string) (*Link, error) {
	var l Link
	err := s.db.GetContext(ctx, &l, s.q(linkSelect+` WHERE l.id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, []*Link{&l}); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetBySlug returns the populated link whose slug (its URL) matches, or ErrNotFound.
func (s *LinkStore) GetBySlug(ctx context.Context, slug string) (*Link, error) {
	var l Link
	err := s.db.GetContext(ctx, &l, s.q(linkSelect+` WHERE l.slug = ?`), slug)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, []*Link{&l}); err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns links newest first, skipping skip and returning at most limit.
func (s *LinkStore) List(ctx context.Context, limit, skip int) ([]*Link, error) {
	return s.selectLinks(ctx, linkSelect+`
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT ? OFFSET ?`, limit, skip)
}

// ListByCategory returns links in the category newest first.
func (s *LinkStore) ListByCategory(ctx context.Context, categoryID string, limit, skip int) ([]*Link, error) {
	return s.selectLinks(ctx, linkSelect+`
		INNER JOIN link_categories lc ON lc.link_id = l.id
		WHERE lc.category_id = ?
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT ? OFFSET ?`, categoryID, limit, skip)
}

// Popular returns the most clicked links.
func (s *LinkStore) Popular(ctx context.Context, limit int) ([]*Link, error) {
	return s.selectLinks(ctx, linkSelect+`
		ORDER BY l.clicks DESC, l.created_at DESC
		LIMIT ?`, limit)
}

// PopularInCategory returns the most clicked links within a category.
func (s *LinkStore) PopularInCategory(ctx context.Context, categoryID string, limit int) ([]*Link, error) {
	return s.selectLinks(ctx, linkSelect+`
		INNER JOIN link_categories lc ON lc.link_id = l.id
		WHERE lc.category_id = ?
		ORDER BY l.clicks DESC, l.created_at DESC
		LIMIT ?`, categoryID, limit)
}

// Update applies a partial replacement to the link matching id. Changing the
// URL moves the slug with it; a collision returns ErrSlugTaken.
func (s *LinkStore) Update(ctx context.Context, id string, in LinkUpdate) (*Link, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var cur Link
	err = tx.GetContext(ctx, &cur, tx.Rebind(`
		SELECT id, title, url, slug, type, medium, clicks, posted_by, created_at, updated_at
		FROM links WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		cur.Title = *in.Title
	}
	if in.URL != nil {
		cur.URL = *in.URL
	}
	if in.Type != nil {
		cur.Type = *in.Type
	}
	if in.Medium != nil {
		cur.Medium = *in.Medium
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE links SET title = ?, url = ?, slug = ?, type = ?, medium = ?, updated_at = ?
		WHERE id = ?
	`), cur.Title, cur.URL, cur.URL, cur.Type, cur.Medium, time.Now().UTC(), id)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	if in.CategoryIDs != nil {
		ids := dedupe(in.CategoryIDs)
		if err := ensureCategoriesExist(ctx, tx, ids); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM link_categories WHERE link_id = ?`), id); err != nil {
			return nil, err
		}
		if err := setLinkCategories(ctx, tx, id, ids); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes the link matching id. Returns ErrNotFound if absent.
func (s *LinkStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM link_categories WHERE link_id = ?`), id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM links WHERE id = ?`), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// IncrementClicks atomically adds one to the link's click counter and
// returns the updated link. The increment happens in a single UPDATE so
// concurrent callers never lose counts.
func (s *LinkStore) IncrementClicks(ctx context.Context, id string) (*Link, error) {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE links SET clicks = clicks + 1 WHERE id = ?`), id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Count returns the total number of links.
func (s *LinkStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM links`)
	return n, err
}

func (s *LinkStore) selectLinks(ctx context.Context, query string, args ...interface{}) ([]*Link, error) {
	links := []*Link{}
	if err := s.db.SelectContext(ctx, &links, s.q(query), args...); err != nil {
		return nil, err
	}
	if err := s.populate(ctx, links); err != nil {
		return nil, err
	}
	return links, nil
}

type linkCategoryRow struct {
	LinkID string `db:"link_id"`
	CategoryRef
}

// populate fills Categories on every link with one query.
func (s *LinkStore) populate(ctx context.Context, links []*Link) error {
	if len(links) == 0 {
		return nil
	}
	byID := make(map[string]*Link, len(links))
	ids := make([]string, 0, len(links))
	for _, l := range links {
		l.Categories = []CategoryRef{}
		byID[l.ID] = l
		ids = append(ids, l.ID)
	}

	query, args, err := sqlx.In(`
		SELECT lc.link_id, c.id, c.name, c.slug
		FROM link_categories lc
		INNER JOIN categories c ON c.id = lc.category_id
		WHERE lc.link_id IN (?)
		ORDER BY lc.link_id, lc.position ASC
	`, ids)
	if err != nil {
		return err
	}

	var rows []linkCategoryRow
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return err
	}
	for _, r := range rows {
		if l, ok := byID[r.LinkID]; ok {
			l.Categories = append(l.Categories, r.CategoryRef)
		}
	}
	return nil
}

func setLinkCategories(ctx context.Context, tx *sqlx.Tx, linkID string, categoryIDs []string) error {
	for i, cid := range categoryIDs {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO link_categories (link_id, category_id, position) VALUES (?, ?, ?)
		`), linkID, cid, i)
		if err != nil {
			return err
		}
	}
	return nil
}
