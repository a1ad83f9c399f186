package notify

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/metrics"
	"github.com/joestump/curated-links/internal/store"
)

// Notifier runs the publish notification pipeline on a bounded queue of
// background workers, detached from the request that published the link.
type Notifier struct {
	categories *store.CategoryStore
	resolver   *Resolver
	dispatcher *Dispatcher
	jobTimeout time.Duration
	log        *zap.Logger

	queue  chan *store.Link
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	// base is the parent of every job context. It is cancelled only when
	// Shutdown gives up waiting.
	base   context.Context
	cancel context.CancelFunc
}

// NotifierOptions configures a Notifier.
type NotifierOptions struct {
	QueueSize  int
	JobTimeout time.Duration
}

func NewNotifier(categories *store.CategoryStore, resolver *Resolver, dispatcher *Dispatcher, opts NotifierOptions, log *zap.Logger) *Notifier {
	if opts.QueueSize < 1 {
		opts.QueueSize = 256
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 2 * time.Minute
	}
	base, cancel := context.WithCancel(context.Background())
	return &Notifier{
		categories: categories,
		resolver:   resolver,
		dispatcher: dispatcher,
		jobTimeout: opts.JobTimeout,
		log:        log.With(zap.String("component", "notifier")),
		queue:      make(chan *store.Link, opts.QueueSize),
		base:       base,
		cancel:     cancel,
	}
}

// Start launches n workers.
func (n *Notifier) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		n.wg.Add(1)
		go n.worker()
	}
}

// Enqueue schedules notifications for a freshly published link. It never
// blocks: when the queue is full or shut down the job is dropped and logged.
func (n *Notifier) Enqueue(link *store.Link) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.drop(link, "notifier stopped")
		return false
	}
	select {
	case n.queue <- link:
		return true
	default:
		n.drop(link, "queue full")
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued and running jobs until
// ctx is done. Jobs still queued at that point are abandoned and logged.
func (n *Notifier) Shutdown(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.cancel()
		n.log.Info("notifier drained")
		return nil
	case <-ctx.Done():
		abandoned := len(n.queue)
		n.cancel()
		n.log.Warn("notifier shutdown deadline reached, abandoning jobs", zap.Int("abandoned", abandoned))
		return ctx.Err()
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for link := range n.queue {
		if n.base.Err() != nil {
			continue
		}
		n.run(link)
	}
}

// run processes one job. A panic is logged and the worker moves on.
func (n *Notifier) run(link *store.Link) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("notification job panicked",
				zap.String("link_id", link.ID),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	if err := n.Process(n.base, link); err != nil {
		n.log.Error("notification job failed", zap.String("link_id", link.ID), zap.Error(err))
	}
}

// Process resolves recipients for link and dispatches one message to each.
// It is what each queued job runs.
func (n *Notifier) Process(ctx context.Context, link *store.Link) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, n.jobTimeout)
	defer cancel()

	ids := link.CategoryIDs()
	recipients, err := n.resolver.Resolve(ctx, ids)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		n.log.Debug("no subscribers for link", zap.String("link_id", link.ID))
		return nil
	}

	cats, err := n.categories.ListByIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "load categories")
	}
	names := categoryNames(ids, cats)

	n.dispatcher.Dispatch(ctx, link, names, recipients)
	metrics.NotifyDispatchDuration.Observe(time.Since(start).Seconds())
	return nil
}

func (n *Notifier) drop(link *store.Link, reason string) {
	metrics.NotifyJobsDroppedTotal.Inc()
	n.log.Warn("notification job dropped", zap.String("link_id", link.ID), zap.String("reason", reason))
}

// categoryNames returns the names of cats in the order of ids, skipping
// categories that no longer exist.
func categoryNames(ids []string, cats []*store.Category) []string {
	byID := make(map[string]string, len(cats))
	for _, c := range cats {
		byID[c.ID] = c.Name
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names
}
