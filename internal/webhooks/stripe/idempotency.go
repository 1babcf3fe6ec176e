package stripe

import (
	"context"
	"time"

	"github.com/printhaus/printhaus-backend/pkg/redis"
)

const idempotencyScope = "stripe-webhook"

// IdempotencyGuard is the fast idempotency layer in front of the durable
// webhook_events record. It short-circuits duplicate deliveries while they
// are still hot; the database unique index remains the authority after the
// TTL lapses.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyGuard builds a webhook idempotency guard.
func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &IdempotencyGuard{store: store, ttl: ttl}
}

// CheckAndMark claims the event id, reporting true when another delivery
// already holds the claim.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if g == nil || g.store == nil {
		return false, nil
	}
	key := g.store.IdempotencyKey(idempotencyScope, eventID)
	claimed, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, err
	}
	return !claimed, nil
}

// Delete drops the claim so the gateway's retry of a failed delivery is not
// swallowed by our own marker.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if g == nil || g.store == nil {
		return nil
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(idempotencyScope, eventID))
}
