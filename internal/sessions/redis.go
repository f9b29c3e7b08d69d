package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores raw bytes under <prefix><session id>
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// DialRedis creates a client; no connection is made until the first command.
func DialRedis(addr, password string, db int, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisBackend{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: prefix,
	}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

func (b *RedisBackend) Put(ctx context.Context, id string, data []byte) error {
	if err := b.client.Set(ctx, b.prefix+id, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (b *RedisBackend) Get(ctx context.Context, id string) ([]byte, bool, error) {
	data, err := b.client.Get(ctx, b.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	return data, true, nil
}

func (b *RedisBackend) Remove(ctx context.Context, id string) (bool, error) {
	n, err := b.client.Del(ctx, b.prefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return n > 0, nil
}

func (b *RedisBackend) Keys(ctx context.Context) ([]string, error) {
	var ids []string
	iter := b.client.Scan(ctx, 0, b.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), b.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

func (b *RedisBackend) Close(context.Context) error {
	return b.client.Close()
}
