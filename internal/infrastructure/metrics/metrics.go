package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsOpened    prometheus.Counter
	TransactionsCompleted prometheus.Counter
	TransactionsFailed    *prometheus.CounterVec
	TransactionsReversed  prometheus.Counter
	DuplicateRequests     prometheus.Counter
	CompleteDuration      prometheus.Histogram
	TransactionEntries    prometheus.Histogram
	TransactionErrors     *prometheus.CounterVec
	TransactionsSwept     prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter

	// Reconciliation metrics
	ReconciliationRuns      prometheus.Counter
	ReconciliationAnomalies *prometheus.CounterVec

	// Outbox metrics
	EventsPublished prometheus.Counter
	EventErrors     prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Redis metrics
	RedisErrors *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics with the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transaction metrics
		TransactionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditledger_transactions_opened_total",
			Help: "Total number of transactions opened",
		}),
		TransactionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditledger_transactions_completed_total",
			Help: "Total number of transactions completed",
		}),
		TransactionsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditledger_transactions_failed_total",
				Help: "Total number of transactions moved to failed, by cause",
			},
			[]string{"cause"},
		),
		TransactionsReversed: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditledger_transactions_reversed_total",
			Help: "Total number of transactions reversed",
		}),
		DuplicateRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditledger_duplicate_requests_total",
			Help: "Total number of opens resolved to an existing transaction by idempotency key",
		}),
		CompleteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "creditledger_complete_duration_seconds",
			Help:    "Duration of transaction completion",
			Buckets: prometheus.DefBuckets,
		}),
		TransactionEntries: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "creditledger_transaction_entries",
			Help:    "Number of entries per completed transaction",
			Buckets: []float64{2, 3, 4, 6, 8, 16, 32},
		}),
		TransactionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditledger_transaction_errors_total",
				Help: "Total number of transaction operation errors by operation and type",
			},
			[]string{"operation", "error_type"},
		),
		TransactionsSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditledger_transactions_swept_total",
			Help: "Total number of abandoned pending transactions moved to failed",
		}),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		// Reconciliation metrics
		ReconciliationRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditledger_reconciliation_runs_total",
			Help: "Total number of full reconciliation reports generated",
		}),
		ReconciliationAnomalies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditledger_reconciliation_anomalies_total",
				Help: "Total reconciliation anomalies detected by kind",
			},
			[]string{"kind"},
		),

		// Outbox metrics
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditledger_events_published_total",
			Help: "Total outbox events published",
		}),
		EventErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "creditledger_event_errors_total",
			Help: "Total outbox events that failed to publish",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "creditledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Redis metrics
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creditledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
