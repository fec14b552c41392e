package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/creditledger/internal/adapter/http"
	"github.com/iho/creditledger/internal/adapter/http/handler"
	"github.com/iho/creditledger/internal/adapter/http/middleware"
	"github.com/iho/creditledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/creditledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/creditledger/internal/adapter/repository/redis"
	"github.com/iho/creditledger/internal/infrastructure/config"
	"github.com/iho/creditledger/internal/infrastructure/eventpublisher"
	"github.com/iho/creditledger/internal/infrastructure/metrics"
	"github.com/iho/creditledger/internal/infrastructure/postgres"
	"github.com/iho/creditledger/internal/infrastructure/redis"
	"github.com/iho/creditledger/internal/infrastructure/worker"
	"github.com/iho/creditledger/internal/usecase"
)

const (
	eventStreamMaxLen    = 100_000
	redisDialTimeout     = 5 * time.Second
	limiterCleanupPeriod = time.Minute
)

// storage is one backend's set of repositories.
type storage struct {
	txManager   usecase.TransactionManager
	accounts    usecase.AccountRepository
	txns        usecase.TransactionRepository
	entries     usecase.EntryRepository
	idempotency usecase.IdempotencyIndex
	outbox      usecase.OutboxRepository
	ledger      usecase.LedgerRepository
	retrier     usecase.Retrier
	ready       handler.Pinger
	close       func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		store := memory.New()
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		return &storage{
			txManager:   memory.NewTxManager(store),
			accounts:    memory.NewAccountRepository(store),
			txns:        memory.NewTransactionRepository(store),
			entries:     memory.NewEntryRepository(store),
			idempotency: memory.NewIdempotencyIndex(store),
			outbox:      memory.NewOutboxRepository(store),
			ledger:      memory.NewLedgerRepository(store),
			close:       func() {},
		}, nil

	case config.StoragePostgres:
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
				return nil, err
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logger.Info().Msg("connected to postgres")

		return &storage{
			txManager:   postgresRepo.NewTxManager(pool),
			accounts:    postgresRepo.NewAccountRepository(pool),
			txns:        postgresRepo.NewTransactionRepository(pool),
			entries:     postgresRepo.NewEntryRepository(pool),
			idempotency: postgresRepo.NewIdempotencyIndex(pool),
			outbox:      postgresRepo.NewOutboxRepository(pool),
			ledger:      postgresRepo.NewLedgerRepository(pool),
			retrier:     postgresRepo.NewRetrier(logger),
			ready:       pool,
			close:       pool.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// application is the fully wired server: its HTTP handler plus the background
// workers that share its use cases.
type application struct {
	cfg     *config.Config
	logger  zerolog.Logger
	handler http.Handler
	workers map[string]func(ctx context.Context) error
	closers []func()
}

func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	reg prometheus.Registerer,
	gatherer prometheus.Gatherer,
) (*application, error) {
	app := &application{
		cfg:     cfg,
		logger:  logger,
		workers: make(map[string]func(ctx context.Context) error),
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, store.close)

	m := metrics.NewWithRegistry(reg)
	ids := postgresRepo.NewULIDGenerator()
	health := handler.NewHealthHandler().WithCheck(cfg.StorageBackend, store.ready)

	accountUC := usecase.NewAccountUseCase(store.txManager, store.accounts, store.outbox, ids, m).
		WithRetrier(store.retrier).
		WithLogger(logger)
	txnUC := usecase.NewTransactionUseCase(
		store.txManager, store.accounts, store.txns, store.entries,
		store.idempotency, store.outbox, ids, m,
	).
		WithRetrier(store.retrier).
		WithLogger(logger)

	var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(logger)

	redisCfg := redis.Config{URL: cfg.RedisURL, DialTimeout: redisDialTimeout}
	if redisCfg.Enabled() {
		client, err := redis.NewClient(ctx, redisCfg)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		logger.Info().Msg("connected to redis")

		accountUC.WithCache(redisRepo.NewCache(client))
		txnUC.WithIdempotencyCache(redisRepo.NewIdempotencyCache(client), cfg.IdempotencyTTL)
		health.WithCheck("redis", handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))

		if cfg.EventSink == config.EventSinkRedis {
			publisher = redisRepo.NewStreamPublisher(client, cfg.EventStream, eventStreamMaxLen)
		}
	}

	postingUC := usecase.NewPostingUseCase(txnUC, accountUC, cfg.SystemOwnerID)
	reconUC := usecase.NewReconciliationUseCase(store.accounts, store.txns, store.entries, store.ledger, m).
		WithLogger(logger)

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:        handler.NewAccountHandler(accountUC),
		TransactionHandler:    handler.NewTransactionHandler(txnUC),
		PostingHandler:        handler.NewPostingHandler(postingUC),
		EntryHandler:          handler.NewEntryHandler(usecase.NewEntryUseCase(store.accounts, store.entries)),
		LedgerHandler:         handler.NewLedgerHandler(usecase.NewLedgerUseCase(store.ledger)),
		ReconciliationHandler: handler.NewReconciliationHandler(reconUC),
		HealthHandler:         health,
		Logger:                logger,
		Metrics:               m,
		Gatherer:              gatherer,
	}

	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
		routerCfg.RateLimiter = limiter
		app.workers["ratelimit_cleanup"] = func(ctx context.Context) error {
			limiter.StartCleanup(ctx, limiterCleanupPeriod)
			return nil
		}
	}
	app.handler = httpAdapter.NewRouter(routerCfg)

	if cfg.OutboxPollInterval > 0 {
		app.workers["event_publisher"] = eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: store.outbox,
			Publisher:  publisher,
			Logger:     logger,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		}).Start
	}
	if cfg.SweepInterval > 0 {
		app.workers["sweeper"] = worker.NewPeriodic("sweeper", cfg.SweepInterval,
			worker.SweepJob(txnUC, cfg.PendingTransactionTimeout), logger).Start
	}
	if cfg.ReconciliationInterval > 0 {
		app.workers["reconciliation"] = worker.NewPeriodic("reconciliation", cfg.ReconciliationInterval,
			worker.ReconciliationJob(reconUC, logger), logger).Start
	}

	return app, nil
}

// Close releases connections in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
