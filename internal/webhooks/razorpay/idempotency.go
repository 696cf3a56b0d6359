package razorpaywebhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type eventStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookEventKey(provider, eventID string) string
}

// IdempotencyGuard marks webhook events as seen so redeliveries short-circuit.
type IdempotencyGuard struct {
	store    eventStore
	ttl      time.Duration
	provider string
}

func NewIdempotencyGuard(store eventStore, ttl time.Duration, provider string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if provider == "" {
		return nil, errors.New("provider is required")
	}
	return &IdempotencyGuard{store: store, ttl: ttl, provider: provider}, nil
}

// CheckAndMark reports true when eventID was already marked.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.WebhookEventKey(g.provider, eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete releases the mark so a gateway retry is processed again.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.WebhookEventKey(g.provider, eventID))
}
