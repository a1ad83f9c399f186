// Package notify fans a published link out to the users subscribed to its
// categories, one email per recipient.
package notify

import (
	"context"

	"github.com/pkg/errors"

	"github.com/joestump/curated-links/internal/store"
)

// Resolver computes notification recipients from subscriptions.
type Resolver struct {
	users *store.UserStore
}

func NewResolver(users *store.UserStore) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns every user subscribed to at least one of categoryIDs, each
// user once. Order is unspecified. Empty input yields an empty result.
func (r *Resolver) Resolve(ctx context.Context, categoryIDs []string) ([]*store.User, error) {
	if len(categoryIDs) == 0 {
		return []*store.User{}, nil
	}
	users, err := r.users.ListSubscribers(ctx, categoryIDs)
	if err != nil {
		return nil, errors.Wrap(err, "list subscribers")
	}

	seen := make(map[string]bool, len(users))
	out := make([]*store.User, 0, len(users))
	for _, u := range users {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		out = append(out, u)
	}
	return out, nil
}
