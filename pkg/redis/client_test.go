package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/shopconsole-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestSetNXAndDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	ok, err := client.SetNX(ctx, "k", "v", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first setnx to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "k", "other", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second setnx to lose, ok=%v err=%v", ok, err)
	}
	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "k"); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestZeroClientReturnsNotInitialized(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := client.SetNX(context.Background(), "k", "v", time.Second); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("checkout", "abc"); got != "shop:idempotency:checkout:abc" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("storefront:ip:1.2.3.4"); got != "shop:rate_limit:storefront:ip:1.2.3.4" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.WebhookEventKey("razorpay", "evt_1"); got != "shop:webhook_event:razorpay:evt_1" {
		t.Fatalf("unexpected webhook key %s", got)
	}
	if got := client.LockKey(""); got != "shop:lock" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 3 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected missing url error")
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
