// Package auth authenticates API callers by bearer token and guards routes
// by role.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/joestump/curated-links/internal/store"
)

// TokenPrefix starts every issued token so leaked tokens are easy to spot.
const TokenPrefix = "cl_"

// Token is a row in the api_tokens table. Only the hash of the plaintext is
// stored.
type Token struct {
	ID         string       `db:"id"`
	UserID     string       `db:"user_id"`
	Name       string       `db:"name"`
	TokenHash  string       `db:"token_hash"`
	LastUsedAt sql.NullTime `db:"last_used_at"`
	ExpiresAt  sql.NullTime `db:"expires_at"`
	CreatedAt  time.Time    `db:"created_at"`
	RevokedAt  sql.NullTime `db:"revoked_at"`
}

// Active reports whether the token is neither revoked nor expired at now.
func (t *Token) Active(now time.Time) bool {
	if t.RevokedAt.Valid {
		return false
	}
	return !t.ExpiresAt.Valid || t.ExpiresAt.Time.After(now)
}

// TokenStore defines operations for API token management.
type TokenStore interface {
	Create(ctx context.Context, userID, name, tokenHash string, expiresAt *time.Time) (*Token, error)
	GetByHash(ctx context.Context, hash string) (*Token, error)
	ListByUser(ctx context.Context, userID string) ([]*Token, error)
	Revoke(ctx context.Context, id, userID string) error
	Touch(ctx context.Context, id string) error
}

// SQLTokenStore is the sqlx-backed implementation of TokenStore.
type SQLTokenStore struct {
	db *sqlx.DB
}

func NewSQLTokenStore(db *sqlx.DB) *SQLTokenStore {
	return &SQLTokenStore{db: db}
}

func (s *SQLTokenStore) q(query string) string { return s.db.Rebind(query) }

func (s *SQLTokenStore) Create(ctx context.Context, userID, name, tokenHash string, expiresAt *time.Time) (*Token, error) {
	id := uuid.New().String()

	var exp sql.NullTime
	if expiresAt != nil {
		exp = sql.NullTime{Time: expiresAt.UTC(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO api_tokens (id, user_id, name, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), id, userID, name, tokenHash, exp, time.Now().UTC())
	if err != nil {
		return nil, errors.Wrap(err, "insert token")
	}
	return s.get(ctx, `SELECT * FROM api_tokens WHERE id = ?`, id)
}

// GetByHash returns the token matching hash, or store.ErrNotFound.
func (s *SQLTokenStore) GetByHash(ctx context.Context, hash string) (*Token, error) {
	return s.get(ctx, `SELECT * FROM api_tokens WHERE token_hash = ?`, hash)
}

// ListByUser returns the user's tokens, newest first.
func (s *SQLTokenStore) ListByUser(ctx context.Context, userID string) ([]*Token, error) {
	tokens := []*Token{}
	err := s.db.SelectContext(ctx, &tokens, s.q(`
		SELECT * FROM api_tokens WHERE user_id = ? ORDER BY created_at DESC
	`), userID)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// Revoke marks the token revoked. Returns store.ErrNotFound unless a token
// with id exists and belongs to userID.
func (s *SQLTokenStore) Revoke(ctx context.Context, id, userID string) error {
	tok, err := s.get(ctx, `SELECT * FROM api_tokens WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if tok.UserID != userID {
		return store.ErrNotFound
	}
	_, err = s.db.ExecContext(ctx, s.q(`UPDATE api_tokens SET revoked_at = ? WHERE id = ?`), time.Now().UTC(), id)
	return err
}

// Touch records that the token was just used.
func (s *SQLTokenStore) Touch(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE api_tokens SET last_used_at = ? WHERE id = ?`), time.Now().UTC(), id)
	return err
}

func (s *SQLTokenStore) get(ctx context.Context, query, arg string) (*Token, error) {
	var t Token
	err := s.db.GetContext(ctx, &t, s.q(query), arg)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Issue generates a token for userID, stores its hash and returns the
// plaintext. The plaintext is not recoverable afterwards. A zero ttl means
// the token never expires.
func Issue(ctx context.Context, tokens TokenStore, userID, name string, ttl time.Duration) (string, *Token, error) {
	plaintext, hash, err := GenerateToken()
	if err != nil {
		return "", nil, errors.Wrap(err, "generate token")
	}
	var exp *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		exp = &t
	}
	tok, err := tokens.Create(ctx, userID, strings.TrimSpace(name), hash, exp)
	if err != nil {
		return "", nil, err
	}
	return plaintext, tok, nil
}

// GenerateToken returns TokenPrefix + 32 random bytes in unpadded base64url,
// along with the hex SHA-256 of that plaintext.
func GenerateToken() (plaintext, hash string, err error) {
	b := make([]byte, 32)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}
	plaintext = TokenPrefix + base64.RawURLEncoding.EncodeToString(b)
	return plaintext, HashToken(plaintext), nil
}

// HashToken returns the hex-encoded SHA-256 of a plaintext token.
func HashToken(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}
