package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/persistence/middleware"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, store ports.HistoryStore, config middleware.EncryptionConfig) ports.HistoryStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(config)
	require.NoError(t, err)
	return mw(store)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	key := generateKey(t)
	ports.RunSessionHistoryContract(t, func(t *testing.T) ports.SessionHistory {
		return encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: key}).Session("s")
	})
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	idx := 1
	state := &domain.HistoryState{Key: "k1", Idx: &idx, Usr: map[string]any{"secret": "my-secret-sauce"}}
	require.NoError(t, secure.Session("s").PushState(ctx, state, "/vault"))

	// The underlying store only sees the envelope.
	raw, err := underlying.Session("s").Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/vault", raw.URL)
	assert.Equal(t, "k1", raw.State.Key)
	require.NotNil(t, raw.State.Idx)
	assert.Equal(t, 1, *raw.State.Idx)
	usr, ok := raw.State.Usr.(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, usr, "secret")
	assert.Contains(t, usr, middleware.EnvelopeField)

	// The caller's record is untouched.
	assert.Equal(t, map[string]any{"secret": "my-secret-sauce"}, state.Usr)

	loaded, err := secure.Session("s").Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"secret": "my-secret-sauce"}, loaded.State.Usr)

	entries, current, err := secure.Session("s").(ports.EntryLister).Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, current)
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].State)
	assert.Equal(t, map[string]any{"secret": "my-secret-sauce"}, entries[1].State.Usr)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	withOld := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, withOld.Session("s").PushState(ctx, &domain.HistoryState{Key: "k1", Usr: "old"}, "/a"))

	rotated := encrypted(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	entry, err := rotated.Session("s").Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", entry.State.Usr)

	require.NoError(t, rotated.Session("s").ReplaceState(ctx, &domain.HistoryState{Key: "k1", Usr: "new"}, "/a"))

	_, err = withOld.Session("s").Current(ctx)
	assert.Error(t, err)
}

func TestEncryptionMiddleware_PlainStateIsRejected(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Session("s").PushState(ctx, &domain.HistoryState{Key: "k1", Usr: "plain"}, "/a"))

	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := secure.Session("s").Current(ctx)
	assert.Error(t, err)
}

func TestEncryptionMiddleware_NilUserStatePassesThrough(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	require.NoError(t, secure.Session("s").PushState(ctx, &domain.HistoryState{Key: "k1"}, "/a"))

	raw, err := underlying.Session("s").Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, raw.State.Usr)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}
