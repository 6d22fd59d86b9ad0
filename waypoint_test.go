package waypoint_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemory_InitialIndex(t *testing.T) {
	h, err := waypoint.NewMemory(context.Background(),
		waypoint.WithInitialEntries("/a", "/b", "/c"),
		waypoint.WithInitialIndex(1),
	)
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, 1, h.Index())
	assert.Equal(t, "/b", h.Location().Pathname)
	assert.Equal(t, domain.ActionPop, h.Action())
}

func TestNewBrowser_PersistsRecord(t *testing.T) {
	ctx := context.Background()
	sh := memory.NewSessionHistory()
	h, err := waypoint.NewBrowser(ctx, sh)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.PushPath(ctx, domain.Path{Pathname: "/p", Search: "?q"}, 7))

	entry, err := sh.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/p?q", entry.URL)
	assert.Equal(t, 7, entry.State.Usr)
	assert.Equal(t, h.Location().Key, entry.State.Key)
}

func TestWithLogger_NamesHistory(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := context.Background()
	h, err := waypoint.NewMemory(ctx, waypoint.WithLogger(logger), waypoint.WithName("s1"))
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.Push(ctx, "/a", nil))
	assert.Contains(t, buf.String(), "history=s1")
	assert.Contains(t, buf.String(), "transition committed")
}

func TestWithUnloadGuard(t *testing.T) {
	sh := memory.NewSessionHistory()
	h, err := waypoint.NewMemory(context.Background(), waypoint.WithUnloadGuard(sh))
	require.NoError(t, err)
	defer h.Close()

	unblock := h.Block(func(domain.Transition) {})
	assert.False(t, sh.Unload())
	assert.Equal(t, 1, h.Blockers())
	unblock()
	assert.True(t, sh.Unload())
}
