package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/shopconsole-backend/pkg/instance"
)

const defaultLockTTL = 2 * time.Minute

// Lock keeps two workers from running the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lock with a TTL. Each acquisition writes a fresh owner
// token and Release only deletes the key while that token is still stored.
type RedisLock struct {
	client lockStore
	key    string
	ttl    time.Duration
	owner  string
}

func NewRedisLock(client lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := instance.GetID() + ":" + uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	defer func() { l.owner = "" }()

	value, err := l.client.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		// The TTL expired and another worker holds the lock now.
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}
