package observability

import (
	"context"
	"fmt"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by history hooks.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Blocked     *prometheus.CounterVec
	Reverted    prometheus.Counter
	Warnings    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waypoint_transitions_total",
				Help: "Total number of committed transitions",
			},
			[]string{"action"},
		),
		Blocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waypoint_blocked_transitions_total",
				Help: "Total number of transitions offered to blockers",
			},
			[]string{"action"},
		),
		Reverted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "waypoint_reverted_pops_total",
				Help: "Total number of backend moves undone because blockers were registered",
			},
		),
		Warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waypoint_warnings_total",
				Help: "Total number of warnings raised by histories",
			},
			[]string{"code"},
		),
	}

	for _, c := range []prometheus.Collector{m.Transitions, m.Blocked, m.Reverted, m.Warnings} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommit: func(_ context.Context, e *domain.CommitEvent) {
			m.Transitions.WithLabelValues(e.Action.String()).Inc()
		},
		OnBlock: func(_ context.Context, e *domain.BlockEvent) {
			m.Blocked.WithLabelValues(e.Action.String()).Inc()
		},
		OnRevert: func(context.Context, *domain.RevertEvent) {
			m.Reverted.Inc()
		},
		OnWarning: func(_ context.Context, e *domain.WarningEvent) {
			m.Warnings.WithLabelValues(e.Code).Inc()
		},
	}
}
