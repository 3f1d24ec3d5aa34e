package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Posting engine metrics
	PostingsApplied  prometheus.Counter
	PostingsReversed prometheus.Counter
	PostingDuration  prometheus.Histogram
	PostingErrors    *prometheus.CounterVec
	SystemFailures   prometheus.Counter

	// Escrow metrics
	PrefundsCreated   prometheus.Counter
	PrefundsCancelled prometheus.Counter
	InvoicesIssued    prometheus.Counter
	InvoicesSettled   prometheus.Counter
	LockStateChanges  *prometheus.CounterVec
	OrphanedLocks     prometheus.Counter
	EscrowDuration    prometheus.Histogram

	// Registry metrics
	BalancesSeeded prometheus.Counter

	// Event metrics
	EventsPublished *prometheus.CounterVec
	EventErrors     prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreErrors     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		PostingsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrowledger_postings_applied_total",
			Help: "Total number of posting legs applied",
		}),
		PostingsReversed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrowledger_postings_reversed_total",
			Help: "Total number of compensating reversal legs replayed",
		}),
		PostingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "escrowledger_posting_duration_seconds",
			Help:    "Duration of multiposting operations",
			Buckets: prometheus.DefBuckets,
		}),
		PostingErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrowledger_posting_errors_total",
				Help: "Total number of posting errors by type",
			},
			[]string{"error_type"},
		),
		SystemFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrowledger_system_failures_total",
			Help: "Reversal replays that failed, leaving the ledger asymmetric",
		}),

		PrefundsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrowledger_prefunds_created_total",
			Help: "Total number of prefunding deposits locked",
		}),
		PrefundsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrowledger_prefunds_cancelled_total",
			Help: "Total number of prefunding deposits cancelled or reclaimed",
		}),
		InvoicesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrowledger_invoices_issued_total",
			Help: "Total number of simple invoices issued",
		}),
		InvoicesSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrowledger_invoices_settled_total",
			Help: "Total number of prefunded invoices settled",
		}),
		LockStateChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrowledger_lock_state_changes_total",
				Help: "Release-state transitions by resulting state",
			},
			[]string{"owner_lock", "beneficiary_lock"},
		),
		OrphanedLocks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrowledger_orphaned_locks_total",
			Help: "Custody locks left in place after a failed prefunding posting",
		}),
		EscrowDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "escrowledger_escrow_duration_seconds",
			Help:    "Duration of escrow operations",
			Buckets: prometheus.DefBuckets,
		}),

		BalancesSeeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrowledger_balances_seeded_total",
			Help: "Total number of (identity, account) balances seeded",
		}),

		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrowledger_events_published_total",
				Help: "Domain events published by type",
			},
			[]string{"event_type"},
		),
		EventErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrowledger_event_errors_total",
			Help: "Domain events the sink failed to accept",
		}),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrowledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "escrowledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		StoreOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrowledger_store_operations_total",
				Help: "Key-value store operations by kind",
			},
			[]string{"operation"},
		),
		StoreErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrowledger_store_errors_total",
				Help: "Key-value store errors by kind",
			},
			[]string{"operation"},
		),
	}
}
