package runtime

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
)

// handlePop reacts to a backend-originated move. By the time it runs the
// backend has already moved, so a blocked move is undone by moving back and
// offered to blockers once the backend confirms the reversal.
func (e *Engine) handlePop(ctx context.Context) {
	pos, err := e.backend.Read(ctx)
	if err != nil {
		e.logger.Error("failed to read backend position", "error", err)
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	// Echo of our own reversal: the backend is back where we are.
	if e.blockedPop != nil {
		tx := *e.blockedPop
		e.blockedPop = nil
		e.mu.Unlock()

		n := e.blockers.Len()
		if n > 0 {
			e.emitBlock(ctx, tx, n)
			e.blockers.Broadcast(tx)
		}
		return
	}

	// Replay of an approved POP.
	if e.redo != nil {
		target := e.redo.index
		e.redo = nil
		if pos.Tracked && pos.Index == target {
			e.mu.Unlock()
			e.apply(ctx, domain.ActionPop, pos.Location, pos.Index)
			return
		}
		e.logger.Debug("discarding stale pop replay", "expected", target, "observed", pos.Index)
	}

	current := e.index
	if e.blockers.Len() == 0 || !pos.Tracked {
		e.mu.Unlock()

		index := current
		if pos.Tracked {
			index = pos.Index
		} else if e.blockers.Len() > 0 {
			e.warn(ctx, domain.WarnUntrackedPop,
				"backend moved to an entry without an index, the move cannot be blocked",
				"path", pos.Location.Path.String())
		}
		e.apply(ctx, domain.ActionPop, pos.Location, index)
		return
	}

	delta := current - pos.Index
	if delta == 0 {
		e.mu.Unlock()
		return
	}

	target := pos.Index
	tx := domain.NewTransition(domain.ActionPop, pos.Location, func(ctx context.Context) error {
		e.mu.Lock()
		e.redo = &pendingRedo{index: target}
		e.mu.Unlock()
		return e.Go(ctx, -delta)
	})
	e.blockedPop = &tx
	e.mu.Unlock()

	e.emitRevert(ctx, target, current, delta)
	if err := e.backend.Go(ctx, delta); err != nil {
		e.mu.Lock()
		e.blockedPop = nil
		e.mu.Unlock()
		e.logger.Error("failed to revert blocked pop", "delta", delta, "error", err)
	}
}
