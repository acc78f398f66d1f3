package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_STORE", "")
	t.Setenv("BACKEND_BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.Backend.BaseURL)
	assert.Equal(t, StoreFile, cfg.Session.Store)
	assert.Equal(t, "user", cfg.Session.Key)
	assert.Equal(t, "ROLE_ADMIN", cfg.Auth.AdminRole)
	assert.Equal(t, "user", cfg.Auth.DefaultSignupRole)
	assert.Equal(t, "/auth", cfg.Navigation.LoginPath)
	assert.Equal(t, "/", cfg.Navigation.HomePath)
	assert.Zero(t, cfg.Backend.Timeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com/api/")
	t.Setenv("BACKEND_TIMEOUT_SECONDS", "5")
	t.Setenv("SESSION_STORE", "REDIS")
	t.Setenv("AUTH_ADMIN_ROLE", "ROLE_ROOT")
	t.Setenv("BACKEND_EMBEDDED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/api", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout())
	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.Equal(t, "ROLE_ROOT", cfg.Auth.AdminRole)
	assert.True(t, cfg.Backend.Embedded)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("SESSION_STORE", "cookie")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadPostgresNeedsDSN(t *testing.T) {
	t.Setenv("SESSION_STORE", "postgres")
	t.Setenv("POSTGRES_DSN", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
}
