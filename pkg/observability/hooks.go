package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/waypoint/pkg/domain"
)

// LoggingHooks returns hooks writing one structured line per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			logger.InfoContext(ctx, "history_commit",
				"action", e.Action,
				"path", e.Location.Path.String(),
				"key", e.Location.Key,
				"index", e.Index,
			)
		},
		OnBlock: func(ctx context.Context, e *domain.BlockEvent) {
			logger.InfoContext(ctx, "history_block",
				"action", e.Action,
				"path", e.Location.Path.String(),
				"blockers", e.Blockers,
			)
		},
		OnRevert: func(ctx context.Context, e *domain.RevertEvent) {
			logger.InfoContext(ctx, "history_revert", "from", e.From, "to", e.To, "delta", e.Delta)
		},
	}
}

// Combine fans every event out to each set of hooks in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			for _, h := range hooks {
				if h.OnCommit != nil {
					h.OnCommit(ctx, e)
				}
			}
		},
		OnBlock: func(ctx context.Context, e *domain.BlockEvent) {
			for _, h := range hooks {
				if h.OnBlock != nil {
					h.OnBlock(ctx, e)
				}
			}
		},
		OnRevert: func(ctx context.Context, e *domain.RevertEvent) {
			for _, h := range hooks {
				if h.OnRevert != nil {
					h.OnRevert(ctx, e)
				}
			}
		},
		OnWarning: func(ctx context.Context, e *domain.WarningEvent) {
			for _, h := range hooks {
				if h.OnWarning != nil {
					h.OnWarning(ctx, e)
				}
			}
		},
	}
}
