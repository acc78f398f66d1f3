package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/domain"
)

func aliceRecord() *domain.SessionRecord {
	return &domain.SessionRecord{
		Token:     "t1",
		TokenType: "Bearer",
		UserID:    1,
		Username:  "alice",
		Email:     "a@x.com",
		Roles:     []string{"ROLE_USER"},
	}
}

func newMemoryStore() (*Store, *MemoryBackend) {
	backend := NewMemoryBackend()
	return NewStore(backend, DefaultKey, zap.NewNop()), backend
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	records := []*domain.SessionRecord{
		aliceRecord(),
		{Token: "x.y.z", TokenType: "", UserID: 0, Username: "", Email: "", Roles: []string{"ROLE_ADMIN", "ROLE_USER"}},
		{Token: "ünïcode", TokenType: "Token", UserID: 9007199254740991, Username: "bob", Email: "b@x.com", Roles: []string{"r"}},
	}
	for _, rec := range records {
		store, _ := newMemoryStore()
		require.NoError(t, store.Write(ctx, rec))

		got, err := store.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	}
}

func TestReadAbsent(t *testing.T) {
	store, _ := newMemoryStore()
	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryStore()

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":      "{{{",
		"null":          "null",
		"wrong type":    `{"token":"t","type":"Bearer","id":1,"roles":"ROLE_USER"}`,
		"missing token": `{"type":"Bearer","id":1,"roles":["ROLE_USER"]}`,
		"empty roles":   `{"token":"t","type":"Bearer","id":1,"roles":[]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, backend := newMemoryStore()
			require.NoError(t, backend.Set(ctx, DefaultKey, []byte(raw)))

			got, err := store.Read(ctx)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrMalformedSession)

			snap, err := store.Snapshot(ctx)
			require.NoError(t, err)
			assert.True(t, snap.Malformed)
			assert.False(t, snap.Authenticated())
		})
	}
}

func TestWriteRejectsInvalidRecord(t *testing.T) {
	store, _ := newMemoryStore()
	err := store.Write(context.Background(), &domain.SessionRecord{Token: "t"})
	require.Error(t, err)
	assert.Zero(t, store.Generation())
}

func TestGenerationAdvancesOnMutation(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryStore()
	assert.Equal(t, uint64(0), store.Generation())

	require.NoError(t, store.Write(ctx, aliceRecord()))
	assert.Equal(t, uint64(1), store.Generation())

	_, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), store.Generation())

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, uint64(2), store.Generation())
}

func TestCompareAndClearSkipsNewerSession(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryStore()
	require.NoError(t, store.Write(ctx, aliceRecord()))

	stale, err := store.Snapshot(ctx)
	require.NoError(t, err)

	newer := aliceRecord()
	newer.Token = "t2"
	require.NoError(t, store.Write(ctx, newer))

	cleared, err := store.CompareAndClear(ctx, stale.Generation)
	require.NoError(t, err)
	assert.False(t, cleared)

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", got.Token)

	current, err := store.Snapshot(ctx)
	require.NoError(t, err)
	cleared, err = store.CompareAndClear(ctx, current.Generation)
	require.NoError(t, err)
	assert.True(t, cleared)

	got, err = store.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCompareAndWriteDoesNotResurrect(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryStore()
	require.NoError(t, store.Write(ctx, aliceRecord()))
	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))

	written, err := store.CompareAndWrite(ctx, snap.Generation, aliceRecord())
	require.NoError(t, err)
	assert.False(t, written)

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

type failingBackend struct{ MemoryBackend }

func (f *failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("unavailable")
}

func TestReadPropagatesBackendError(t *testing.T) {
	store := NewStore(&failingBackend{}, "", nil)
	assert.Equal(t, DefaultKey, store.Key())

	_, err := store.Read(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedSession)
}
