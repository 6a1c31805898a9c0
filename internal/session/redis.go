package session

import (
	"context"
	"fmt"
)

type sessionCache interface {
	LoadSession(ctx context.Context, name string) ([]byte, error)
	StoreSession(ctx context.Context, name string, data []byte) error
}

// RedisBackend keeps the session in valkey. pkg/redis returns nil data for a
// missing key.
type RedisBackend struct {
	cache sessionCache
	name  string
}

func NewRedisBackend(cache sessionCache, name string) *RedisBackend {
	return &RedisBackend{cache: cache, name: name}
}

func (b *RedisBackend) Name() string {
	return "redis"
}

func (b *RedisBackend) Load(ctx context.Context) ([]byte, error) {
	data, err := b.cache.LoadSession(ctx, b.name)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return data, nil
}

func (b *RedisBackend) Save(ctx context.Context, data []byte) error {
	return b.cache.StoreSession(ctx, b.name, data)
}
