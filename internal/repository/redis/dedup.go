package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ameliazsabrina/sericlo-app/internal/domain"
)

const keyPrefix = "reconcile:seen:"

// DedupCache short-circuits repeat reconciliation events before they reach
// the database. It is an optimization only; the ledger's conditional upsert
// stays authoritative, so a cold or unavailable cache just means more
// no-op writes.
type DedupCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupCache creates a Redis-backed reconciliation dedup cache.
func NewDedupCache(client *redis.Client, ttl time.Duration) *DedupCache {
	return &DedupCache{
		client: client,
		ttl:    ttl,
	}
}

func eventKey(ev *domain.ReconcileEvent) string {
	return fmt.Sprintf("%s%s|%s|%s", keyPrefix, ev.OrderID, ev.GatewayTxnID, ev.Status)
}

// MarkSeen records the event and reports whether it had already been seen
// within the TTL window. The check and the write are one SETNX round trip.
func (c *DedupCache) MarkSeen(ctx context.Context, ev *domain.ReconcileEvent) (bool, error) {
	set, err := c.client.SetNX(ctx, eventKey(ev), 1, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis mark event: %w", err)
	}

	return !set, nil
}

// Forget removes the seen marker for an event, letting a retry through.
func (c *DedupCache) Forget(ctx context.Context, ev *domain.ReconcileEvent) error {
	if err := c.client.Del(ctx, eventKey(ev)).Err(); err != nil {
		return fmt.Errorf("redis forget event: %w", err)
	}

	return nil
}
