// Package worker runs the ledger's periodic maintenance jobs.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/usecase"
)

// Job is one unit of periodic work. Its error is logged, never fatal.
type Job func(ctx context.Context) error

// Periodic runs a Job every interval until its context is cancelled.
type Periodic struct {
	name     string
	interval time.Duration
	job      Job
	logger   zerolog.Logger
}

// NewPeriodic creates a Periodic worker.
func NewPeriodic(name string, interval time.Duration, job Job, logger zerolog.Logger) *Periodic {
	return &Periodic{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger.With().Str("worker", name).Logger(),
	}
}

// Name returns the worker name.
func (p *Periodic) Name() string { return p.name }

// Start runs the job immediately and then on every tick. It returns ctx.Err() on shutdown.
func (p *Periodic) Start(ctx context.Context) error {
	p.logger.Info().Dur("interval", p.interval).Msg("worker started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.run(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

func (p *Periodic) run(ctx context.Context) {
	start := time.Now()
	if err := p.job(ctx); err != nil && ctx.Err() == nil {
		p.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("worker run failed")
	}
}

// Sweeper fails pending transactions abandoned for longer than a timeout.
type Sweeper interface {
	SweepAbandoned(ctx context.Context, olderThan time.Duration) (int, error)
}

// SweepJob sweeps until a batch comes back empty, so a backlog drains in one run.
func SweepJob(s Sweeper, olderThan time.Duration) Job {
	return func(ctx context.Context) error {
		for {
			n, err := s.SweepAbandoned(ctx, olderThan)
			if err != nil {
				return err
			}
			if n < usecase.SweepBatchSize {
				return nil
			}
		}
	}
}

// Reporter produces a full reconciliation report.
type Reporter interface {
	GenerateReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// ReconciliationJob generates a report and logs a summary. Individual anomalies are
// logged and counted by the reconciliation use case itself.
func ReconciliationJob(r Reporter, logger zerolog.Logger) Job {
	return func(ctx context.Context) error {
		report, err := r.GenerateReport(ctx)
		if err != nil {
			return err
		}

		event := logger.Info()
		if !report.Consistent {
			event = logger.Error()
		}
		event.
			Bool("consistent", report.Consistent).
			Int("account_discrepancies", len(report.AccountDiscrepancies)).
			Int("transaction_discrepancies", len(report.TransactionDiscrepancies)).
			Msg("periodic reconciliation finished")

		return nil
	}
}
