package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/adapter/http/handler"
	"github.com/iho/creditledger/internal/adapter/http/middleware"
	"github.com/iho/creditledger/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler        *handler.AccountHandler
	TransactionHandler    *handler.TransactionHandler
	PostingHandler        *handler.PostingHandler
	EntryHandler          *handler.EntryHandler
	LedgerHandler         *handler.LedgerHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler

	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	RateLimiter *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetrics(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/balance", cfg.AccountHandler.Balance)
			r.Get("/{id}/balance/history", cfg.EntryHandler.GetHistoricalBalance)
			r.Get("/{id}/entries", cfg.EntryHandler.ListByAccount)
			r.Get("/{id}/reconciliation", cfg.ReconciliationHandler.CheckAccount)
		})

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.Open)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Get("/{id}/entries", cfg.TransactionHandler.ListEntries)
			r.Post("/{id}/entries", cfg.TransactionHandler.AddEntry)
			r.Put("/{id}/entries", cfg.TransactionHandler.SetEntries)
			r.Delete("/{id}/entries/{entryID}", cfg.TransactionHandler.RemoveEntry)
			r.Post("/{id}/complete", cfg.TransactionHandler.Complete)
			r.Post("/{id}/fail", cfg.TransactionHandler.Fail)
			r.Post("/{id}/reverse", cfg.TransactionHandler.Reverse)
			r.Get("/{id}/reconciliation", cfg.ReconciliationHandler.CheckTransaction)
		})

		// One-shot postings
		r.Post("/records", cfg.PostingHandler.Record)
		r.Post("/purchases", cfg.PostingHandler.Purchase)
		r.Post("/usage-charges", cfg.PostingHandler.UsageCharge)

		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
		r.Get("/reconciliation/report", cfg.ReconciliationHandler.Report)
	})

	return r
}
