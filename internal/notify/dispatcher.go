package notify

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joestump/curated-links/internal/metrics"
	"github.com/joestump/curated-links/internal/store"
)

// Summary counts the outcome of one dispatch.
type Summary struct {
	Accepted int
	Rejected int
}

// Dispatcher sends one message per recipient with bounded concurrency. A
// failure for one recipient never affects another.
type Dispatcher struct {
	mailer      Mailer
	renderer    *Renderer
	concurrency int
	timeout     time.Duration
	log         *zap.Logger
}

func NewDispatcher(mailer Mailer, renderer *Renderer, concurrency int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		mailer:      mailer,
		renderer:    renderer,
		concurrency: concurrency,
		timeout:     timeout,
		log:         log.With(zap.String("component", "dispatcher")),
	}
}

// Dispatch submits a message about link to every recipient. Outcomes are
// logged and counted; nothing is returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, link *store.Link, categoryNames []string, recipients []*store.User) Summary {
	var accepted, rejected atomic.Int64

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, u := range recipients {
		g.Go(func() error {
			if err := d.send(ctx, link, categoryNames, u); err != nil {
				rejected.Add(1)
				metrics.NotificationsTotal.WithLabelValues("rejected").Inc()
				d.log.Warn("notification rejected",
					zap.String("link_id", link.ID),
					zap.String("to", u.Email),
					zap.Error(err),
				)
				return nil
			}
			accepted.Add(1)
			metrics.NotificationsTotal.WithLabelValues("accepted").Inc()
			return nil
		})
	}
	_ = g.Wait()

	s := Summary{Accepted: int(accepted.Load()), Rejected: int(rejected.Load())}
	d.log.Info("notifications dispatched",
		zap.String("link_id", link.ID),
		zap.Int("accepted", s.Accepted),
		zap.Int("rejected", s.Rejected),
	)
	return s
}

// send renders and submits one message. A panic in the renderer or mailer
// counts as a rejection for this recipient only.
func (d *Dispatcher) send(ctx context.Context, link *store.Link, categoryNames []string, u *store.User) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic while sending: %v", r)
		}
	}()

	msg, err := d.renderer.Render(u, link, categoryNames)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.mailer.Send(ctx, msg)
}
