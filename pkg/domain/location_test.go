package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_String(t *testing.T) {
	assert.Equal(t, "/", domain.Path{}.String())
	assert.Equal(t, "/?q#h", domain.Path{Search: "?q", Hash: "#h"}.String())
	assert.Equal(t, "/a?q", domain.Path{Pathname: "/a", Search: "?q"}.String())
}

func TestNewLocation_UniqueKeys(t *testing.T) {
	a := domain.NewLocation(domain.Path{Pathname: "/a"}, nil)
	b := domain.NewLocation(domain.Path{Pathname: "/a"}, nil)
	assert.NotEmpty(t, a.Key)
	assert.NotEqual(t, a.Key, b.Key)
	assert.True(t, a.SameAddress(b))

	c := domain.NewLocation(domain.Path{Pathname: "/a"}, map[string]any{"x": 1})
	assert.False(t, a.SameAddress(c))
}

func TestLocation_JSONFlattensPath(t *testing.T) {
	loc := domain.Location{Path: domain.Path{Pathname: "/a", Search: "?b"}, State: "s", Key: "k"}
	data, err := json.Marshal(loc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pathname":"/a","search":"?b","state":"s","key":"k"}`, string(data))
}

func TestAction_Text(t *testing.T) {
	var a domain.Action
	require.NoError(t, a.UnmarshalText([]byte("PUSH")))
	assert.Equal(t, domain.ActionPush, a)
	assert.Error(t, a.UnmarshalText([]byte("JUMP")))

	data, err := json.Marshal(domain.ActionReplace)
	require.NoError(t, err)
	assert.Equal(t, `"REPLACE"`, string(data))
}

func TestHistoryState_WithIndex(t *testing.T) {
	var nilState *domain.HistoryState
	stamped := nilState.WithIndex(3)
	require.NotNil(t, stamped.Idx)
	assert.Equal(t, 3, *stamped.Idx)

	orig := &domain.HistoryState{Key: "k", Usr: "u"}
	next := orig.WithIndex(1)
	assert.Nil(t, orig.Idx)
	assert.Equal(t, "k", next.Key)
	assert.Equal(t, "u", next.Usr)
}
