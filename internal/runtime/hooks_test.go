package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/waypoint/internal/runtime"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_LifecycleHooks(t *testing.T) {
	ctx := context.Background()

	var commits []domain.Action
	var blocks []domain.Action
	var reverts []*domain.RevertEvent
	var warnings []string

	hooks := domain.LifecycleHooks{
		OnCommit: func(_ context.Context, e *domain.CommitEvent) {
			assert.Equal(t, domain.EventCommit, e.Type)
			commits = append(commits, e.Action)
		},
		OnBlock: func(_ context.Context, e *domain.BlockEvent) {
			assert.Equal(t, 1, e.Blockers)
			blocks = append(blocks, e.Action)
		},
		OnRevert: func(_ context.Context, e *domain.RevertEvent) {
			reverts = append(reverts, e)
		},
		OnWarning: func(_ context.Context, e *domain.WarningEvent) {
			warnings = append(warnings, e.Code)
		},
	}

	backend := memory.NewBackend(memory.WithInitialEntries("/0", "/1", "/2"))
	engine, err := runtime.NewEngine(ctx, backend, runtime.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	defer engine.Close()

	require.NoError(t, engine.Replace(ctx, "/2", nil))
	assert.Equal(t, []string{domain.WarnSamePath}, warnings)

	unblock := engine.Block(func(domain.Transition) {})
	require.NoError(t, engine.Push(ctx, "/3", nil))
	require.NoError(t, backend.Go(ctx, -2))
	unblock()

	assert.Equal(t, []domain.Action{domain.ActionReplace}, commits)
	assert.Equal(t, []domain.Action{domain.ActionPush, domain.ActionPop}, blocks)
	require.Len(t, reverts, 1)
	assert.Equal(t, 0, reverts[0].From)
	assert.Equal(t, 2, reverts[0].To)
	assert.Equal(t, 2, reverts[0].Delta)
}
