package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssetOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curatedlinks_asset_operations_total",
		Help: "Object store calls by operation (put, delete) and result (ok, error).",
	}, []string{"op", "result"})

	OrphanedObjectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curatedlinks_orphaned_objects_total",
		Help: "Remote objects left behind by a failed best-effort delete.",
	})

	LinksPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curatedlinks_links_published_total",
		Help: "Links successfully persisted by the publish flow.",
	})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curatedlinks_notifications_total",
		Help: "Per-recipient email submissions by result (accepted, rejected).",
	}, []string{"result"})

	NotifyJobsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curatedlinks_notify_jobs_dropped_total",
		Help: "Notification jobs dropped because the queue was full or closed.",
	})

	NotifyDispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "curatedlinks_notify_dispatch_duration_seconds",
		Help:    "Time to resolve recipients and dispatch one publish notification.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	ClicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curatedlinks_clicks_total",
		Help: "Click increments applied to links.",
	})
)
