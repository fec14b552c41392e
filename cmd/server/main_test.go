package main

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/creditledger/internal/infrastructure/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StorageBackend:            config.StorageMemory,
		HTTPReadTimeout:           time.Second,
		HTTPWriteTimeout:          time.Second,
		HTTPIdleTimeout:           time.Second,
		HTTPShutdownTimeout:       time.Second,
		IdempotencyTTL:            time.Hour,
		PendingTransactionTimeout: time.Minute,
		SystemOwnerID:             "system",
		SweepInterval:             time.Minute,
		ReconciliationInterval:    time.Hour,
		OutboxPollInterval:        time.Second,
		OutboxBatchSize:           10,
		EventSink:                 config.EventSinkLog,
		RateLimitRPS:              100,
		RateLimitBurst:            100,
	}
}

func newTestApplication(t *testing.T, cfg *config.Config) *application {
	t.Helper()

	reg := prometheus.NewRegistry()
	app, err := newApplication(context.Background(), cfg, zerolog.Nop(), reg, reg)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestOpenStorage_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.StorageBackend = "sqlite"

	_, err := openStorage(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestNewApplication_RegistersWorkers(t *testing.T) {
	app := newTestApplication(t, memoryConfig())

	for _, name := range []string{"event_publisher", "sweeper", "reconciliation", "ratelimit_cleanup"} {
		assert.Contains(t, app.workers, name)
	}
}

func TestNewApplication_ZeroIntervalsDisableWorkers(t *testing.T) {
	cfg := memoryConfig()
	cfg.SweepInterval = 0
	cfg.ReconciliationInterval = 0
	cfg.OutboxPollInterval = 0
	cfg.RateLimitRPS = 0

	app := newTestApplication(t, cfg)
	assert.Empty(t, app.workers)
}

func TestNewApplication_RedisUnreachable(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	reg := prometheus.NewRegistry()
	_, err := newApplication(context.Background(), cfg, zerolog.Nop(), reg, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestServe_HandlesRequestsAndShutsDown(t *testing.T) {
	app := newTestApplication(t, memoryConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, app, ln) }()

	base := "http://" + ln.Addr().String()
	client := &http.Client{Timeout: time.Second}

	resp, err := client.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := `{"idempotency_key":"purchase-1","owner_id":"user-1","currency":"CREDITS","amount":500}`
	resp, err = client.Post(base+"/api/v1/purchases", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = client.Get(base + "/api/v1/ledger/consistency")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}
