package memory

import (
	"context"
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create stores an event inside a transaction.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	prevOrder := r.store.outboxOrder
	r.store.outbox[event.ID] = cloneEvent(event)
	r.store.outboxOrder = append(append([]string(nil), prevOrder...), event.ID)

	t.onRollback(func() {
		delete(r.store.outbox, event.ID)
		r.store.outboxOrder = prevOrder
	})
	return nil
}

// GetUnpublished returns unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var events []*domain.OutboxEvent
	err := r.store.withLock(ctx, func() error {
		for _, id := range r.store.outboxOrder {
			e := r.store.outbox[id]
			if e.Published {
				continue
			}
			events = append(events, cloneEvent(e))
			if limit > 0 && len(events) == limit {
				break
			}
		}
		return nil
	})
	return events, err
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.store.withLock(ctx, func() error {
		e, ok := r.store.outbox[id]
		if !ok {
			return nil
		}
		e.Published = true
		e.PublishedAt = &publishedAt
		return nil
	})
}

// GetByAggregate lists events of one aggregate, oldest first.
func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	var events []*domain.OutboxEvent
	err := r.store.withLock(ctx, func() error {
		var all []*domain.OutboxEvent
		for _, id := range r.store.outboxOrder {
			e := r.store.outbox[id]
			if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
				all = append(all, cloneEvent(e))
			}
		}
		events = page(all, limit, offset)
		return nil
	})
	return events, err
}

// DeletePublished prunes events published before the cutoff.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return r.store.withLock(ctx, func() error {
		kept := r.store.outboxOrder[:0:0]
		for _, id := range r.store.outboxOrder {
			e := r.store.outbox[id]
			if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
				delete(r.store.outbox, id)
				continue
			}
			kept = append(kept, id)
		}
		r.store.outboxOrder = kept
		return nil
	})
}
