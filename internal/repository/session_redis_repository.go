package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/authportal/internal/session"
)

type redisSessionRepository struct {
	client redis.Cmdable
	prefix string
}

// NewRedisSessionRepository returns a Redis-backed session storage. Keys are
// stored without expiry; the backend decides when a token dies.
func NewRedisSessionRepository(client redis.Cmdable, prefix string) session.Backend {
	return &redisSessionRepository{client: client, prefix: prefix}
}

func (r *redisSessionRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (r *redisSessionRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *redisSessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
