package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// User is owned by the account subsystem; the curation core only reads it
// and its subscription set.
type User struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts a user. Returns ErrEmailTaken if the email is registered.
func (s *UserStore) Create(ctx context.Context, name, email, role string) (*User, error) {
	if role == "" {
		role = "user"
	}
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO users (id, name, email, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), id, name, email, role, now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the user matching id, or ErrNotFound.
func (s *UserStore) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT * FROM users WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user matching email, or ErrNotFound.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT * FROM users WHERE email = ?`), email)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListAll returns all users ordered by name.
func (s *UserStore) ListAll(ctx context.Context) ([]*User, error) {
	var users []*User
	err := s.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateRole sets the role for the given user and returns the updated record.
func (s *UserStore) UpdateRole(ctx context.Context, id, role string) (*User, error) {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`),
		role, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// SetSubscriptions replaces the user's subscription set. Every category id
// must exist, otherwise ErrUnknownCategory is returned and nothing changes.
func (s *UserStore) SetSubscriptions(ctx context.Context, userID string, categoryIDs []string) error {
	ids := dedupe(categoryIDs)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureCategoriesExist(ctx, tx, ids); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM user_categories WHERE user_id = ?`), userID); err != nil {
		return err
	}
	for _, id := range ids {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO user_categories (user_id, category_id) VALUES (?, ?)
		`), userID, id)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSubscriptions returns the categories the user is subscribed to.
func (s *UserStore) ListSubscriptions(ctx context.Context, userID string) ([]*Category, error) {
	var cats []*Category
	err := s.db.SelectContext(ctx, &cats, s.q(categorySelect+`
		INNER JOIN user_categories uc ON uc.category_id = c.id
		WHERE uc.user_id = ?
		ORDER BY c.name ASC
	`), userID)
	if err != nil {
		return nil, err
	}
	return cats, nil
}

// ListSubscribers returns every user subscribed to at least one of the given
// categories. Each user appears once regardless of how many categories match.
func (s *UserStore) ListSubscribers(ctx context.Context, categoryIDs []string) ([]*User, error) {
	ids := dedupe(categoryIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT * FROM users WHERE id IN (
			SELECT DISTINCT user_id FROM user_categories WHERE category_id IN (?)
		)
		ORDER BY email ASC
	`, ids)
	if err != nil {
		return nil, err
	}

	var users []*User
	if err := s.db.SelectContext(ctx, &users, s.q(query), args...); err != nil {
		return nil, err
	}
	return users, nil
}

// ensureCategoriesExist returns ErrUnknownCategory unless every id in ids
// names an existing category. ids must already be deduplicated.
func ensureCategoriesExist(ctx context.Context, tx *sqlx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM categories WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	var n int
	if err := tx.GetContext(ctx, &n, tx.Rebind(query), args...); err != nil {
		return err
	}
	if n != len(ids) {
		return ErrUnknownCategory
	}
	return nil
}
