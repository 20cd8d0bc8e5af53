package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/missionledger/internal/domain"
)

// Metrics holds all Prometheus metrics. It implements usecase.MetricsRecorder.
type Metrics struct {
	// Ledger metrics
	PostingsTotal     *prometheus.CounterVec
	PostingDuration   *prometheus.HistogramVec
	ReversalsTotal    *prometheus.CounterVec
	PeriodTransitions *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Idempotency metrics
	IdempotentReplays prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter
}

// New creates and registers all metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates and registers all metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PostingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "missionledger_postings_total",
				Help: "Postings attempted by source kind and outcome",
			},
			[]string{"source_kind", "outcome"},
		),
		PostingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "missionledger_posting_duration_seconds",
				Help:    "Duration of posting operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source_kind"},
		),
		ReversalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "missionledger_reversals_total",
				Help: "Posting reversals by outcome",
			},
			[]string{"outcome"},
		),
		PeriodTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "missionledger_period_transitions_total",
				Help: "Period closes and reopens by target status and outcome",
			},
			[]string{"status", "outcome"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "missionledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "missionledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "missionledger_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "missionledger_idempotent_replays_total",
			Help: "Responses replayed for a repeated Idempotency-Key",
		}),

		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "missionledger_outbox_published_total",
			Help: "Outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "missionledger_outbox_errors_total",
			Help: "Outbox events that failed to publish",
		}),
	}
}

// PostingRecorded counts a posting attempt and observes its duration.
func (m *Metrics) PostingRecorded(kind domain.SourceKind, outcome string, elapsed time.Duration) {
	m.PostingsTotal.WithLabelValues(string(kind), outcome).Inc()
	m.PostingDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// PostingReversed counts a reversal attempt.
func (m *Metrics) PostingReversed(outcome string) {
	m.ReversalsTotal.WithLabelValues(outcome).Inc()
}

// PeriodTransition counts a close or reopen attempt.
func (m *Metrics) PeriodTransition(status domain.PeriodStatus, outcome string) {
	m.PeriodTransitions.WithLabelValues(string(status), outcome).Inc()
}

// EventPublished counts an outbox event handed to the publisher.
func (m *Metrics) EventPublished() {
	m.OutboxPublished.Inc()
}

// EventFailed counts an outbox event the publisher rejected.
func (m *Metrics) EventFailed() {
	m.OutboxErrors.Inc()
}
