package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	manager := session.NewManager(memory.NewStore())
	t.Cleanup(func() { manager.Close() })
	return NewServer(manager)
}

func TestTools_Navigation(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	req := mcp.CallToolRequest{}

	resp, err := s.handleLocation(ctx, req, map[string]interface{}{"session": "s1"})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionPop, resp.Action)
	assert.Equal(t, "/", resp.Location.Pathname)
	assert.Equal(t, 0, resp.Index)

	resp, err = s.handlePush(ctx, req, map[string]interface{}{
		"session": "s1",
		"to":      "/docs/intro",
		"state":   `{"from":"search"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionPush, resp.Action)
	assert.Equal(t, "/docs/intro", resp.Location.Pathname)
	assert.Equal(t, map[string]any{"from": "search"}, resp.Location.State)
	assert.Equal(t, 1, resp.Index)

	resp, err = s.handleReplace(ctx, req, map[string]interface{}{
		"session": "s1",
		"to":      "guide",
		"state":   "plain",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionReplace, resp.Action)
	assert.Equal(t, "/docs/guide", resp.Location.Pathname)
	assert.Equal(t, "plain", resp.Location.State)
	assert.Equal(t, 1, resp.Index)

	resp, err = s.handleGo(ctx, req, map[string]interface{}{"session": "s1", "delta": float64(-1)})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionPop, resp.Action)
	assert.Equal(t, 0, resp.Index)
}

func TestTools_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	req := mcp.CallToolRequest{}

	_, err := s.handlePush(ctx, req, map[string]interface{}{"session": "s1"})
	assert.Error(t, err)

	_, err = s.handleLocation(ctx, req, map[string]interface{}{})
	assert.Error(t, err)

	_, err = s.handleGo(ctx, req, map[string]interface{}{"session": "s1", "delta": "back"})
	assert.ErrorIs(t, err, domain.ErrInvalidDelta)
}

func TestResources_Sessions(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	_, err := s.handlePush(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session": "b", "to": "/x"})
	require.NoError(t, err)
	_, err = s.handlePush(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session": "a", "to": "/y"})
	require.NoError(t, err)

	contents, err := s.readSessions(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, SessionsURI, text.URI)
	assert.JSONEq(t, `["a","b"]`, text.Text)
}
