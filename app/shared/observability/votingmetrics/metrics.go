package votingmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VotingMetrics records vote admission outcomes and counter-store latencies.
type VotingMetrics interface {
	RecordVoteAttempt(ctx context.Context)
	RecordVoteAccepted(ctx context.Context)
	RecordVoteRejected(ctx context.Context, reason string)
	RecordVoteRetracted(ctx context.Context)
	RecordOperationDuration(ctx context.Context, operation string, duration time.Duration)
	RecordCounterFailure(ctx context.Context, operation string)
}

type prometheusMetrics struct {
	voteAttempts      prometheus.Counter
	votesAccepted     prometheus.Counter
	votesRejected     *prometheus.CounterVec
	votesRetracted    prometheus.Counter
	operationDuration *prometheus.HistogramVec
	counterFailures   *prometheus.CounterVec
}

// NewVotingMetrics registers the voting collectors on the given registerer.
func NewVotingMetrics(reg prometheus.Registerer) VotingMetrics {
	m := &prometheusMetrics{
		voteAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voting_vote_attempts_total",
			Help: "Vote attempts reaching the admission checker.",
		}),
		votesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voting_votes_accepted_total",
			Help: "Votes admitted and applied to the counter store.",
		}),
		votesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voting_votes_rejected_total",
			Help: "Votes rejected by the admission checker, by reason code.",
		}, []string{"reason"}),
		votesRetracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voting_votes_retracted_total",
			Help: "Votes retracted with a compensating decrement.",
		}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voting_operation_duration_seconds",
			Help:    "Duration of voting service operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		counterFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voting_counter_failures_total",
			Help: "Counter store operation failures, by operation.",
		}, []string{"operation"}),
	}
	reg.MustRegister(m.voteAttempts, m.votesAccepted, m.votesRejected, m.votesRetracted, m.operationDuration, m.counterFailures)
	return m
}

func (m *prometheusMetrics) RecordVoteAttempt(context.Context)  { m.voteAttempts.Inc() }
func (m *prometheusMetrics) RecordVoteAccepted(context.Context) { m.votesAccepted.Inc() }

func (m *prometheusMetrics) RecordVoteRejected(_ context.Context, reason string) {
	m.votesRejected.WithLabelValues(reason).Inc()
}

func (m *prometheusMetrics) RecordVoteRetracted(context.Context) { m.votesRetracted.Inc() }

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordCounterFailure(_ context.Context, operation string) {
	m.counterFailures.WithLabelValues(operation).Inc()
}

// NoOpMetrics is the test double.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordVoteAttempt(context.Context)                              {}
func (NoOpMetrics) RecordVoteAccepted(context.Context)                             {}
func (NoOpMetrics) RecordVoteRejected(context.Context, string)                     {}
func (NoOpMetrics) RecordVoteRetracted(context.Context)                            {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoOpMetrics) RecordCounterFailure(context.Context, string)                   {}
