package browser_test

import (
	"context"
	"testing"

	"github.com/aretw0/waypoint/pkg/adapters/browser"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserBackend_Contract(t *testing.T) {
	ports.RunBackendContract(t, func(t *testing.T) ports.Backend {
		return browser.New(memory.NewSessionHistory())
	})
}

func TestBrowserBackend_UntrackedEntry(t *testing.T) {
	h := memory.NewSessionHistory(memory.WithEntries(domain.Entry{URL: "/docs?page=2#intro"}))
	b := browser.New(h)

	pos, err := b.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, pos.Tracked)
	assert.Equal(t, domain.DefaultKey, pos.Location.Key)
	assert.Equal(t, "/docs", pos.Location.Pathname)
	assert.Equal(t, "?page=2", pos.Location.Search)
	assert.Equal(t, "#intro", pos.Location.Hash)
	assert.Nil(t, pos.Location.State)
}

func TestBrowserBackend_WritesRecord(t *testing.T) {
	ctx := context.Background()
	h := memory.NewSessionHistory()
	b := browser.New(h)
	loc := domain.NewLocation(domain.Path{Pathname: "/a", Hash: "#h"}, "s")

	require.NoError(t, b.Push(ctx, loc, 1))

	entry, err := h.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/a#h", entry.URL)
	require.NotNil(t, entry.State)
	assert.Equal(t, "s", entry.State.Usr)
	assert.Equal(t, loc.Key, entry.State.Key)
	require.NotNil(t, entry.State.Idx)
	assert.Equal(t, 1, *entry.State.Idx)
}

func TestBrowserBackend_WriteQuota(t *testing.T) {
	b := browser.New(memory.NewSessionHistory(memory.WithMaxEntries(1)))

	err := b.Push(context.Background(), domain.NewLocation(domain.Path{Pathname: "/a"}, nil), 1)
	assert.ErrorIs(t, err, domain.ErrWriteQuota)
}

func TestBrowserBackend_ForwardsUnloadGuard(t *testing.T) {
	h := memory.NewSessionHistory()
	b := browser.New(h)

	b.Arm()
	assert.False(t, h.Unload())
	b.Disarm()
	assert.True(t, h.Unload())
}
