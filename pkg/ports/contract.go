package ports

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractWait = 2 * time.Second

// RunSessionHistoryContract runs a suite of tests verifying that a
// SessionHistory implementation adheres to the interface contract.
// newHistory must return an empty, independent history on every call.
func RunSessionHistoryContract(t *testing.T, newHistory func(t *testing.T) SessionHistory) {
	ctx := context.Background()

	t.Run("Empty History Has Root Entry", func(t *testing.T) {
		h := newHistory(t)

		entry, err := h.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "/", entry.URL)

		n, err := h.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("PushState Appends And Moves", func(t *testing.T) {
		h := newHistory(t)

		err := h.PushState(ctx, &domain.HistoryState{Key: "k1", Usr: "u"}, "/one")
		require.NoError(t, err)

		entry, err := h.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "/one", entry.URL)
		require.NotNil(t, entry.State)
		assert.Equal(t, "k1", entry.State.Key)

		n, err := h.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("ReplaceState Overwrites", func(t *testing.T) {
		h := newHistory(t)
		require.NoError(t, h.PushState(ctx, &domain.HistoryState{Key: "k1"}, "/one"))

		require.NoError(t, h.ReplaceState(ctx, &domain.HistoryState{Key: "k2"}, "/two"))

		entry, err := h.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "/two", entry.URL)
		assert.Equal(t, "k2", entry.State.Key)

		n, err := h.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("Push Does Not Notify", func(t *testing.T) {
		h := newHistory(t)
		var calls atomic.Int32
		unsubscribe := h.Subscribe(func(context.Context) { calls.Add(1) })
		defer unsubscribe()

		require.NoError(t, h.PushState(ctx, &domain.HistoryState{Key: "k1"}, "/one"))
		require.NoError(t, h.ReplaceState(ctx, &domain.HistoryState{Key: "k2"}, "/two"))

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("Go Moves And Notifies", func(t *testing.T) {
		h := newHistory(t)
		require.NoError(t, h.PushState(ctx, &domain.HistoryState{Key: "k1"}, "/one"))

		var calls atomic.Int32
		unsubscribe := h.Subscribe(func(context.Context) { calls.Add(1) })
		defer unsubscribe()

		require.NoError(t, h.Go(ctx, -1))
		assert.Eventually(t, func() bool { return calls.Load() == 1 }, contractWait, 10*time.Millisecond)

		entry, err := h.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "/", entry.URL)
	})

	t.Run("Go Out Of Range Is A No-op", func(t *testing.T) {
		h := newHistory(t)
		var calls atomic.Int32
		unsubscribe := h.Subscribe(func(context.Context) { calls.Add(1) })
		defer unsubscribe()

		require.NoError(t, h.Go(ctx, -1))
		require.NoError(t, h.Go(ctx, 3))

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("Push Truncates Forward Entries", func(t *testing.T) {
		h := newHistory(t)
		require.NoError(t, h.PushState(ctx, &domain.HistoryState{Key: "k1"}, "/one"))
		require.NoError(t, h.PushState(ctx, &domain.HistoryState{Key: "k2"}, "/two"))

		var calls atomic.Int32
		unsubscribe := h.Subscribe(func(context.Context) { calls.Add(1) })
		defer unsubscribe()

		require.NoError(t, h.Go(ctx, -2))
		assert.Eventually(t, func() bool { return calls.Load() == 1 }, contractWait, 10*time.Millisecond)

		require.NoError(t, h.PushState(ctx, &domain.HistoryState{Key: "k3"}, "/three"))

		n, err := h.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		entry, err := h.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "/three", entry.URL)
	})

	t.Run("Assign Drops State", func(t *testing.T) {
		h := newHistory(t)

		require.NoError(t, h.Assign(ctx, "/elsewhere"))

		entry, err := h.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "/elsewhere", entry.URL)
		assert.Nil(t, entry.State)
	})

	t.Run("Unsubscribe Stops Notifications", func(t *testing.T) {
		h := newHistory(t)
		require.NoError(t, h.PushState(ctx, &domain.HistoryState{Key: "k1"}, "/one"))

		var calls atomic.Int32
		unsubscribe := h.Subscribe(func(context.Context) { calls.Add(1) })
		unsubscribe()
		unsubscribe()

		require.NoError(t, h.Go(ctx, -1))
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, int32(0), calls.Load())
	})
}

// RunBackendContract runs a suite of tests verifying that a Backend
// implementation adheres to the interface contract.
// newBackend must return a fresh backend positioned on a single root entry.
func RunBackendContract(t *testing.T, newBackend func(t *testing.T) Backend) {
	ctx := context.Background()

	t.Run("Push Then Read", func(t *testing.T) {
		b := newBackend(t)
		loc := domain.NewLocation(domain.Path{Pathname: "/a", Search: "?q=1"}, "state")

		require.NoError(t, b.Push(ctx, loc, 1))

		pos, err := b.Read(ctx)
		require.NoError(t, err)
		assert.True(t, pos.Tracked)
		assert.Equal(t, 1, pos.Index)
		assert.Equal(t, "/a?q=1", pos.Location.Path.String())
		assert.Equal(t, loc.Key, pos.Location.Key)
		assert.Equal(t, "state", pos.Location.State)
	})

	t.Run("Replace Keeps Index", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Push(ctx, domain.NewLocation(domain.Path{Pathname: "/a"}, nil), 1))

		loc := domain.NewLocation(domain.Path{Pathname: "/b"}, nil)
		require.NoError(t, b.Replace(ctx, loc, 1))

		pos, err := b.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, pos.Index)
		assert.Equal(t, "/b", pos.Location.Pathname)
		assert.Equal(t, loc.Key, pos.Location.Key)
	})

	t.Run("Go Notifies With New Position", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Push(ctx, domain.NewLocation(domain.Path{Pathname: "/a"}, nil), 1))

		var calls atomic.Int32
		unsubscribe := b.Subscribe(func(context.Context) { calls.Add(1) })
		defer unsubscribe()

		require.NoError(t, b.Go(ctx, -1))
		assert.Eventually(t, func() bool { return calls.Load() == 1 }, contractWait, 10*time.Millisecond)

		pos, err := b.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, pos.Index)
	})

	t.Run("Href", func(t *testing.T) {
		b := newBackend(t)
		assert.Contains(t, b.Href(domain.Path{Pathname: "/x", Search: "?y"}), "/x?y")
	})
}
