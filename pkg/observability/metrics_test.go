package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordHistoryEvents(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))

	h, err := waypoint.NewMemory(ctx,
		waypoint.WithInitialEntries("/0", "/1", "/2"),
		waypoint.WithLifecycleHooks(hooks),
	)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.Push(ctx, "/3", nil))
	require.NoError(t, h.Replace(ctx, "/3", nil))

	unblock := h.Block(func(domain.Transition) {})
	require.NoError(t, h.Back(ctx))
	unblock()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("PUSH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("REPLACE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Blocked.WithLabelValues("POP")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Reverted))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Warnings.WithLabelValues(domain.WarnSamePath)))

	assert.Contains(t, buf.String(), "history_commit")
	assert.Contains(t, buf.String(), "history_revert")
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}
