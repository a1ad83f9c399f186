// Package links publishes and edits curated links.
package links

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/metrics"
	"github.com/joestump/curated-links/internal/store"
)

// ErrLinkExists is returned when another link already uses the URL.
var ErrLinkExists = errors.New("link already exists")

// Enqueuer schedules post-publish work. Enqueue must not block.
type Enqueuer interface {
	Enqueue(link *store.Link) bool
}

// PublishRequest holds the fields of a new link.
type PublishRequest struct {
	Title       string
	URL         string
	Type        string
	Medium      string
	CategoryIDs []string
	PostedBy    string
}

// Publisher persists links and hands them to the notification queue.
type Publisher struct {
	links    *store.LinkStore
	notifier Enqueuer
	log      *zap.Logger
}

func NewPublisher(links *store.LinkStore, notifier Enqueuer, log *zap.Logger) *Publisher {
	return &Publisher{
		links:    links,
		notifier: notifier,
		log:      log.With(zap.String("component", "publisher")),
	}
}

// Publish validates and saves the link, then enqueues subscriber
// notifications and returns without waiting for them. The URL is the link's
// slug, so a URL already in use returns ErrLinkExists and nothing is
// enqueued.
func (p *Publisher) Publish(ctx context.Context, in PublishRequest) (*store.Link, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, ErrTitleEmpty
	}
	if err := ValidateURL(in.URL); err != nil {
		return nil, err
	}
	if err := ValidateType(in.Type); err != nil {
		return nil, err
	}
	if err := ValidateMedium(in.Medium); err != nil {
		return nil, err
	}

	link, err := p.links.Create(ctx, store.NewLink{
		Title:       in.Title,
		URL:         in.URL,
		Type:        in.Type,
		Medium:      in.Medium,
		PostedBy:    in.PostedBy,
		CategoryIDs: in.CategoryIDs,
	})
	if errors.Is(err, store.ErrSlugTaken) {
		return nil, errors.Wrap(ErrLinkExists, in.URL)
	}
	if err != nil {
		return nil, err
	}

	metrics.LinksPublishedTotal.Inc()
	p.log.Info("link published",
		zap.String("link_id", link.ID),
		zap.String("url", link.URL),
		zap.Strings("categories", link.CategoryIDs()),
	)
	p.notifier.Enqueue(link)
	return link, nil
}

// Update applies a partial update after validating the supplied fields. A
// URL change that collides with another link returns ErrLinkExists.
func (p *Publisher) Update(ctx context.Context, id string, in store.LinkUpdate) (*store.Link, error) {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, ErrTitleEmpty
		}
		in.Title = &t
	}
	if in.URL != nil {
		if err := ValidateURL(*in.URL); err != nil {
			return nil, err
		}
	}
	if in.Type != nil {
		if err := ValidateType(*in.Type); err != nil {
			return nil, err
		}
	}
	if in.Medium != nil {
		if err := ValidateMedium(*in.Medium); err != nil {
			return nil, err
		}
	}

	link, err := p.links.Update(ctx, id, in)
	if errors.Is(err, store.ErrSlugTaken) {
		return nil, errors.Wrap(ErrLinkExists, *in.URL)
	}
	return link, err
}
