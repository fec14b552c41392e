package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyCache implements usecase.IdempotencyCache. It only remembers keys
// whose reservation already committed; the database index stays authoritative.
type IdempotencyCache struct {
	client redis.UniversalClient
	prefix string
}

// NewIdempotencyCache creates a new IdempotencyCache.
func NewIdempotencyCache(client redis.UniversalClient) *IdempotencyCache {
	return &IdempotencyCache{
		client: client,
		prefix: "creditledger:idempotency:",
	}
}

// Get returns the transaction id remembered for key.
func (c *IdempotencyCache) Get(ctx context.Context, key string) (string, bool, error) {
	id, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Remember stores key -> transactionID unless key is already remembered.
// Keys are write-once, so a second writer never replaces the first mapping.
func (c *IdempotencyCache) Remember(ctx context.Context, key, transactionID string, ttl time.Duration) error {
	return c.client.SetNX(ctx, c.prefix+key, transactionID, ttl).Err()
}
