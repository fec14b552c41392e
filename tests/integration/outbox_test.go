package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/eventpublisher"
	"github.com/iho/creditledger/tests/testutil"
)

func TestOutboxEventCreation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	ledger := testDB.NewLedger()
	res := ledger.Fund(t, "user-1", "CREDITS", 300)

	events, err := ledger.OutboxRepo.GetByAggregate(ctx, domain.AggregateTypeTransaction, res.Transaction.ID, 10, 0)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}

	var completed *domain.OutboxEvent
	for _, event := range events {
		if event.EventType == domain.EventTypeTransactionCompleted {
			completed = event
			break
		}
	}
	if completed == nil {
		t.Fatal("transaction completed event not found in outbox")
	}

	if completed.Published {
		t.Error("event should not be published yet")
	}
	if completed.Payload["transaction_id"] != res.Transaction.ID {
		t.Errorf("payload transaction_id mismatch: expected %s, got %v", res.Transaction.ID, completed.Payload["transaction_id"])
	}
	if completed.Payload["currency"] != "CREDITS" {
		t.Errorf("payload currency mismatch: %v", completed.Payload["currency"])
	}

	// Lazily created accounts announce themselves too.
	wallet := ledger.CreateTestAccount(t, "user-1", "CREDITS", domain.AccountClassAsset)
	accountEvents, err := ledger.OutboxRepo.GetByAggregate(ctx, domain.AggregateTypeAccount, wallet.ID, 10, 0)
	if err != nil {
		t.Fatalf("failed to get account events: %v", err)
	}
	if len(accountEvents) != 1 || accountEvents[0].EventType != domain.EventTypeAccountCreated {
		t.Fatalf("expected one account.created event, got %d", len(accountEvents))
	}
}

func TestEventPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	ledger := testDB.NewLedger()
	ledger.Fund(t, "user-1", "CREDITS", 300)

	recorder := &recordingPublisher{}
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: ledger.OutboxRepo,
		Publisher:  recorder,
		Logger:     zerolog.Nop(),
		BatchSize:  10,
		Interval:   50 * time.Millisecond,
	})

	publisherCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	go func() { _ = publisher.Start(publisherCtx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		unpublished, err := ledger.OutboxRepo.GetUnpublished(ctx, 10)
		if err != nil {
			t.Fatalf("failed to get unpublished events: %v", err)
		}
		if len(unpublished) == 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	published := recorder.Published()
	// account.created for wallet and revenue plus transaction.completed
	if len(published) < 3 {
		t.Fatalf("expected at least 3 published events, got %d", len(published))
	}

	unpublished, err := ledger.OutboxRepo.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("failed to get unpublished events: %v", err)
	}
	if len(unpublished) > 0 {
		t.Errorf("expected 0 unpublished events after publishing, got %d", len(unpublished))
	}
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []*domain.OutboxEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return nil
}

func (p *recordingPublisher) Published() []*domain.OutboxEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.OutboxEvent{}, p.published...)
}
