package persistence

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/config"
)

// Redis holds the client and key prefix under which the session record is
// kept when SESSION_STORE=redis.
type Redis struct {
	Client    *redis.Client
	KeyPrefix string
}

// NewRedis connects to Redis. An unreachable server is logged, not fatal:
// session reads then fail and the portal treats the visitor as logged out
// until Redis comes back.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	fields := []zap.Field{zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB), zap.String("key_prefix", cfg.KeyPrefix)}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("session store cannot reach redis; sessions read as logged out", append(fields, zap.Error(err))...)
	} else {
		logger.Info("session store connected to redis", fields...)
	}

	return &Redis{Client: client, KeyPrefix: cfg.KeyPrefix}
}

// Close closes the client. Safe on a nil receiver.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}
