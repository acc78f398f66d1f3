package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/config"
)

func TestNewRedisCarriesSessionKeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rdb := NewRedis(ctx, config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "portal:"}, zap.NewNop())
	defer rdb.Close()

	assert.Equal(t, "portal:", rdb.KeyPrefix)
	require.NoError(t, rdb.Client.Set(ctx, rdb.KeyPrefix+"user", "{}", 0).Err())
	assert.True(t, mr.Exists("portal:user"))
}

func TestNewRedisToleratesUnreachableServer(t *testing.T) {
	rdb := NewRedis(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"}, zap.NewNop())
	require.NotNil(t, rdb.Client)
	rdb.Close()

	var nilRedis *Redis
	nilRedis.Close()
}
