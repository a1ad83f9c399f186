package store

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSlugTaken is returned when a category or link slug already exists.
	ErrSlugTaken = errors.New("slug is already taken")

	// ErrEmailTaken is returned when a user with the same email already exists.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrUnknownCategory is returned when a link or subscription references a
	// category id that does not exist.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrImageChanged is returned when a category's image was replaced by
	// someone else between read and write.
	ErrImageChanged = errors.New("category image changed concurrently")
)

// isUniqueConstraintError reports whether err is a unique index violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") || // PostgreSQL
		strings.Contains(msg, "duplicate entry") // MySQL
}

// dedupe returns ids with duplicates and empty strings removed, order preserved.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
