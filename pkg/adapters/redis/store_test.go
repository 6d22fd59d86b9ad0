package redis_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/waypoint/pkg/adapters/browser"
	"github.com/aretw0/waypoint/pkg/adapters/redis"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisSessionHistory_Contract(t *testing.T) {
	ports.RunSessionHistoryContract(t, func(t *testing.T) ports.SessionHistory {
		store, _ := newStore(t)
		return store.Open("contract")
	})
}

func TestRedisBackend_Contract(t *testing.T) {
	ports.RunBackendContract(t, func(t *testing.T) ports.Backend {
		store, _ := newStore(t)
		return browser.New(store.Open("contract"))
	})
}

func TestRedisStore_Prefix(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t, redis.WithPrefix("custom:app:"))

	require.NoError(t, store.Open("my-session").PushState(ctx, nil, "/a"))

	assert.True(t, mr.Exists("custom:app:my-session:entries"))
	assert.True(t, mr.Exists("custom:app:my-session:index"))
	assert.True(t, mr.Exists("custom:app:index"))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, list, "my-session")
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t, redis.WithTTL(time.Second))
	h := store.Open("session-ttl")

	require.NoError(t, h.PushState(ctx, &domain.HistoryState{Key: "k"}, "/a"))
	n, err := h.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mr.FastForward(2 * time.Second)

	entry, err := h.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/", entry.URL, "expired history starts over")
}

func TestRedisStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	require.NoError(t, store.Open("s1").Assign(ctx, "/x"))
	require.NoError(t, store.Delete(ctx, "s1"))

	assert.False(t, mr.Exists("waypoint:history:s1:entries"))
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, list, "s1")
}

func TestRedisStore_WriteQuota(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, redis.WithMaxEntries(2))
	h := store.Open("s1")

	require.NoError(t, h.PushState(ctx, nil, "/a"))
	assert.ErrorIs(t, h.PushState(ctx, nil, "/b"), domain.ErrWriteQuota)

	// Assign is not subject to the quota.
	require.NoError(t, h.Assign(ctx, "/b"))
	n, err := h.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRedisStore_Entries(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	h := store.Open("s1")

	entries, idx, err := h.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 0, idx)

	require.NoError(t, h.PushState(ctx, (&domain.HistoryState{Key: "a"}).WithIndex(1), "/a"))
	require.NoError(t, h.PushState(ctx, (&domain.HistoryState{Key: "b"}).WithIndex(2), "/b"))
	require.NoError(t, h.Go(ctx, -1))

	entries, idx, err = h.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "/b", entries[2].URL)
	assert.Equal(t, "b", entries[2].State.Key)
}

func TestRedisStore_MovesReachOtherInstances(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	clientA := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	clientB := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer clientA.Close()
	defer clientB.Close()

	a := redis.NewFromClient(clientA).Open("shared")
	b := redis.NewFromClient(clientB).Open("shared")

	var calls atomic.Int32
	unsubscribe := b.Subscribe(func(context.Context) { calls.Add(1) })
	defer unsubscribe()

	require.NoError(t, a.PushState(ctx, nil, "/a"))
	require.NoError(t, a.Go(ctx, -1))

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	entry, err := b.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/", entry.URL)
}
