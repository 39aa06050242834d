// Package dedup remembers processed webhook deliveries so redeliveries can
// short-circuit before touching the database. It is a fast path only: the
// order status guard in the database stays authoritative.
package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyFormat = "dedup:%s:%s"

// DefaultTTL matches how long payment providers keep retrying a delivery.
const DefaultTTL = 48 * time.Hour

type Store interface {
	Seen(ctx context.Context, scope, id string) (bool, error)
	Mark(ctx context.Context, scope, id string) error
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(addr string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		rdb: redis.NewClient(&redis.Options{
			Addr:         addr,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		}),
		ttl: ttl,
	}
}

func (s *RedisStore) Seen(ctx context.Context, scope, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, fmt.Sprintf(keyFormat, scope, id)).Result()
	return n > 0, err
}

func (s *RedisStore) Mark(ctx context.Context, scope, id string) error {
	return s.rdb.Set(ctx, fmt.Sprintf(keyFormat, scope, id), "1", s.ttl).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Memory is an in-process Store without expiry.
type Memory struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[string]struct{})}
}

func (m *Memory) Seen(_ context.Context, scope, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[fmt.Sprintf(keyFormat, scope, id)]
	return ok, nil
}

func (m *Memory) Mark(_ context.Context, scope, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[fmt.Sprintf(keyFormat, scope, id)] = struct{}{}
	return nil
}

// Noop never reports a delivery as seen.
type Noop struct{}

func (Noop) Seen(context.Context, string, string) (bool, error) { return false, nil }
func (Noop) Mark(context.Context, string, string) error         { return nil }
