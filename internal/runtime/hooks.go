package runtime

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
)

func (e *Engine) emitCommit(ctx context.Context, action domain.Action, location domain.Location, index int) {
	if e.hooks.OnCommit == nil {
		return
	}
	e.hooks.OnCommit(ctx, &domain.CommitEvent{
		EventBase: domain.NewEventBase(domain.EventCommit),
		Action:    action,
		Location:  location,
		Index:     index,
	})
}

func (e *Engine) emitBlock(ctx context.Context, tx domain.Transition, blockers int) {
	e.logger.Debug("transition blocked", "action", tx.Action, "path", tx.Location.Path.String(), "blockers", blockers)
	if e.hooks.OnBlock == nil {
		return
	}
	e.hooks.OnBlock(ctx, &domain.BlockEvent{
		EventBase: domain.NewEventBase(domain.EventBlock),
		Action:    tx.Action,
		Location:  tx.Location,
		Blockers:  blockers,
	})
}

func (e *Engine) emitRevert(ctx context.Context, from, to, delta int) {
	e.logger.Debug("reverting pop", "from", from, "to", to, "delta", delta)
	if e.hooks.OnRevert == nil {
		return
	}
	e.hooks.OnRevert(ctx, &domain.RevertEvent{
		EventBase: domain.NewEventBase(domain.EventRevert),
		From:      from,
		To:        to,
		Delta:     delta,
	})
}

// warn logs a non-fatal condition and forwards it to the warning hook.
func (e *Engine) warn(ctx context.Context, code, msg string, args ...any) {
	e.logger.Warn(msg, append([]any{"code", code}, args...)...)
	if e.hooks.OnWarning == nil {
		return
	}
	e.hooks.OnWarning(ctx, &domain.WarningEvent{
		EventBase: domain.NewEventBase(domain.EventWarning),
		Code:      code,
		Message:   msg,
	})
}
