package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/pkg/adapters/hash"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/adapters/redis"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/aretw0/waypoint/pkg/urlpath"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_HistoryIsCached(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(memory.NewStore())
	defer manager.Close()

	a, err := manager.History(ctx, "a")
	require.NoError(t, err)
	again, err := manager.History(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	_, err = manager.History(ctx, "")
	assert.Error(t, err)
}

func TestManager_ConcurrentPushesAreSerialized(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	manager := session.NewManager(store)
	defer manager.Close()

	var wg sync.WaitGroup
	writers := 20
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Do(ctx, "race-test", func(ctx context.Context, h *waypoint.History) error {
				return h.Push(ctx, "/step", nil)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	h, err := manager.History(ctx, "race-test")
	require.NoError(t, err)
	assert.Equal(t, writers, h.Index())

	n, err := store.Open("race-test").Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, writers+1, n)
}

func TestManager_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(memory.NewStore())
	defer manager.Close()

	for _, id := range []string{"b", "a"} {
		require.NoError(t, manager.Do(ctx, id, func(ctx context.Context, h *waypoint.History) error {
			return h.Push(ctx, "/x", nil)
		}))
	}

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, manager.Delete(ctx, "a"))
	ids, err = manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestManager_HashMode(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	manager := session.NewManager(store, session.WithHashMode(hash.WithHashType(urlpath.HashNoSlash)))
	defer manager.Close()

	require.NoError(t, manager.Do(ctx, "s", func(ctx context.Context, h *waypoint.History) error {
		return h.Push(ctx, "/inbox", nil)
	}))

	entry, err := store.Open("s").Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#inbox", entry.URL)
}

func TestManager_DistributedLock(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	store := redis.NewFromClient(client)
	manager := session.NewManager(store,
		session.WithLocker(redis.NewLocker(client, "waypoint:")),
		session.WithLockTTL(5*time.Second),
	)
	defer manager.Close()

	err := manager.Do(ctx, "shared", func(ctx context.Context, h *waypoint.History) error {
		assert.True(t, mr.Exists("waypoint:lock:shared"))
		return h.Push(ctx, "/a", "s")
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("waypoint:lock:shared"))

	entry, err := store.Open("shared").Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/a", entry.URL)
}
