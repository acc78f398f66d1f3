package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileBackendLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "state")
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, backend.Ping(ctx))

	_, ok, err := backend.Get(ctx, "user")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Set(ctx, "user", []byte(`{"a":1}`)))
	data, ok, err := backend.Get(ctx, "user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not linger")

	require.NoError(t, backend.Delete(ctx, "user"))
	require.NoError(t, backend.Delete(ctx, "user"))
	_, ok, err = backend.Get(ctx, "user")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileBackendRejectsPathKeys(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../user", "a/b"} {
		err := backend.Set(context.Background(), key, []byte("x"))
		assert.Error(t, err, key)
	}
}

func TestFileBackendSurvivesNewStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, NewStore(first, DefaultKey, zap.NewNop()).Write(ctx, aliceRecord()))

	second, err := NewFileBackend(dir)
	require.NoError(t, err)
	got, err := NewStore(second, DefaultKey, zap.NewNop()).Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, aliceRecord(), got)
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	value := []byte("abc")
	require.NoError(t, backend.Set(ctx, "k", value))
	value[0] = 'z'

	got, ok, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))
}
