package tallymetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TallyMetrics records counter synchronizer activity.
type TallyMetrics interface {
	RecordSyncAttempt(ctx context.Context, items int)
	RecordSyncedItems(ctx context.Context, items int)
	RecordSyncFailure(ctx context.Context)
	RecordSyncDuration(ctx context.Context, duration time.Duration)
}

type prometheusMetrics struct {
	syncAttempts prometheus.Counter
	syncedItems  prometheus.Counter
	syncFailures prometheus.Counter
	syncDuration prometheus.Histogram
}

// NewTallyMetrics registers the synchronizer collectors on the given registerer.
func NewTallyMetrics(reg prometheus.Registerer) TallyMetrics {
	m := &prometheusMetrics{
		syncAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_sync_items_attempted_total",
			Help: "Items submitted to the counter synchronizer.",
		}),
		syncedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_sync_items_synced_total",
			Help: "Items whose durable totals were set by the synchronizer.",
		}),
		syncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_sync_failures_total",
			Help: "Synchronizer passes that degraded to best-available durable data.",
		}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tally_sync_duration_seconds",
			Help:    "Duration of synchronizer passes.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.syncAttempts, m.syncedItems, m.syncFailures, m.syncDuration)
	return m
}

func (m *prometheusMetrics) RecordSyncAttempt(_ context.Context, items int) {
	m.syncAttempts.Add(float64(items))
}

func (m *prometheusMetrics) RecordSyncedItems(_ context.Context, items int) {
	m.syncedItems.Add(float64(items))
}

func (m *prometheusMetrics) RecordSyncFailure(context.Context) { m.syncFailures.Inc() }

func (m *prometheusMetrics) RecordSyncDuration(_ context.Context, duration time.Duration) {
	m.syncDuration.Observe(duration.Seconds())
}

// NoOpMetrics is the test double.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordSyncAttempt(context.Context, int)            {}
func (NoOpMetrics) RecordSyncedItems(context.Context, int)            {}
func (NoOpMetrics) RecordSyncFailure(context.Context)                 {}
func (NoOpMetrics) RecordSyncDuration(context.Context, time.Duration) {}
