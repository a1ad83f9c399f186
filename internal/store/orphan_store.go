package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// OrphanedObject is a remote object key whose best-effort delete failed.
type OrphanedObject struct {
	Key       string    `db:"object_key"`
	Reason    string    `db:"reason"`
	Attempts  int       `db:"attempts"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// OrphanStore keeps the ledger of objects that are no longer referenced by
// any category but could not be removed from the object store.
type OrphanStore struct {
	db *sqlx.DB
}

func NewOrphanStore(db *sqlx.DB) *OrphanStore {
	return &OrphanStore{db: db}
}

func (s *OrphanStore) q(query string) string { return s.db.Rebind(query) }

// Record adds key to the ledger, or bumps its attempt count if already present.
func (s *OrphanStore) Record(ctx context.Context, key, reason string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO orphaned_objects (object_key, reason, attempts, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
	`), key, reason, now, now)
	if err == nil {
		return nil
	}
	if !isUniqueConstraintError(err) {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.q(`
		UPDATE orphaned_objects SET attempts = attempts + 1, reason = ?, updated_at = ?
		WHERE object_key = ?
	`), reason, now, key)
	return err
}

// List returns up to limit ledger entries, oldest first.
func (s *OrphanStore) List(ctx context.Context, limit int) ([]*OrphanedObject, error) {
	var out []*OrphanedObject
	err := s.db.SelectContext(ctx, &out, s.q(`
		SELECT * FROM orphaned_objects ORDER BY created_at ASC LIMIT ?
	`), limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve removes key from the ledger once the object is gone.
func (s *OrphanStore) Resolve(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM orphaned_objects WHERE object_key = ?`), key)
	return err
}
