package advancemetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AdvanceMetrics records slot-advancement attempts and outcomes.
type AdvanceMetrics interface {
	RecordAdvanceAttempt(ctx context.Context, trigger string)
	RecordAdvanceOutcome(ctx context.Context, outcome string)
	RecordAdvanceDuration(ctx context.Context, duration time.Duration)
	RecordLockBusy(ctx context.Context)
}

type prometheusMetrics struct {
	attempts *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
	lockBusy prometheus.Counter
}

// NewAdvanceMetrics registers the advancement collectors on the given registerer.
func NewAdvanceMetrics(reg prometheus.Registerer) AdvanceMetrics {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advance_attempts_total",
			Help: "Slot advancement attempts, by trigger.",
		}, []string{"trigger"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advance_outcomes_total",
			Help: "Slot advancement outcomes.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "advance_duration_seconds",
			Help:    "Duration of slot advancement runs.",
			Buckets: prometheus.DefBuckets,
		}),
		lockBusy: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advance_lock_busy_total",
			Help: "Advancement attempts that found the lock held.",
		}),
	}
	reg.MustRegister(m.attempts, m.outcomes, m.duration, m.lockBusy)
	return m
}

func (m *prometheusMetrics) RecordAdvanceAttempt(_ context.Context, trigger string) {
	m.attempts.WithLabelValues(trigger).Inc()
}

func (m *prometheusMetrics) RecordAdvanceOutcome(_ context.Context, outcome string) {
	m.outcomes.WithLabelValues(outcome).Inc()
}

func (m *prometheusMetrics) RecordAdvanceDuration(_ context.Context, duration time.Duration) {
	m.duration.Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordLockBusy(context.Context) { m.lockBusy.Inc() }

// NoOpMetrics is the test double.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordAdvanceAttempt(context.Context, string)         {}
func (NoOpMetrics) RecordAdvanceOutcome(context.Context, string)         {}
func (NoOpMetrics) RecordAdvanceDuration(context.Context, time.Duration) {}
func (NoOpMetrics) RecordLockBusy(context.Context)                       {}
