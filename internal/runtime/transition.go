package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/urlpath"
)

// Push navigates to to, a possibly partial address, with the given state.
func (e *Engine) Push(ctx context.Context, to string, state any) error {
	return e.PushPath(ctx, urlpath.Parse(to), state)
}

// PushPath adds a new entry forward of the current one.
// A transition vetoed by blockers is not an error.
func (e *Engine) PushPath(ctx context.Context, to domain.Path, state any) error {
	next := e.nextLocation(ctx, domain.ActionPush, to, state)
	tx := domain.NewTransition(domain.ActionPush, next, func(ctx context.Context) error {
		return e.commitPush(ctx, next)
	})
	if !e.allow(ctx, tx) {
		return nil
	}
	return tx.Retry(ctx)
}

// Replace overwrites the current entry with to, a possibly partial address.
func (e *Engine) Replace(ctx context.Context, to string, state any) error {
	return e.ReplacePath(ctx, urlpath.Parse(to), state)
}

// ReplacePath overwrites the current entry, keeping its index.
func (e *Engine) ReplacePath(ctx context.Context, to domain.Path, state any) error {
	next := e.nextLocation(ctx, domain.ActionReplace, to, state)
	tx := domain.NewTransition(domain.ActionReplace, next, func(ctx context.Context) error {
		return e.commitReplace(ctx, next)
	})
	if !e.allow(ctx, tx) {
		return nil
	}
	return tx.Retry(ctx)
}

// Go asks the backend to move by delta. The resulting POP arrives later
// through the backend notification and goes through the blocking protocol.
func (e *Engine) Go(ctx context.Context, delta int) error {
	if err := e.backend.Go(ctx, delta); err != nil {
		return fmt.Errorf("failed to move history by %d: %w", delta, err)
	}
	return nil
}

// Back is Go(-1).
func (e *Engine) Back(ctx context.Context) error {
	return e.Go(ctx, -1)
}

// Forward is Go(1).
func (e *Engine) Forward(ctx context.Context) error {
	return e.Go(ctx, 1)
}

// CreateHref renders the address a link to to should point at.
func (e *Engine) CreateHref(to string) string {
	return e.backend.Href(urlpath.Parse(to))
}

func (e *Engine) nextLocation(ctx context.Context, action domain.Action, to domain.Path, state any) domain.Location {
	current := e.Location()
	next := domain.NewLocation(urlpath.Merge(current.Path, to), state)
	if next.SameAddress(current) {
		e.warn(ctx, domain.WarnSamePath,
			fmt.Sprintf("%s to the current address with unchanged state", action),
			"path", next.Path.String())
	}
	return next
}

// allow reports whether tx may proceed right away. With blockers registered
// it offers tx to them and reports false; a blocker approves by retrying.
func (e *Engine) allow(ctx context.Context, tx domain.Transition) bool {
	n := e.blockers.Len()
	if n == 0 {
		return true
	}
	e.emitBlock(ctx, tx, n)
	e.blockers.Broadcast(tx)
	return false
}

func (e *Engine) commitPush(ctx context.Context, next domain.Location) error {
	index := e.Index() + 1

	err := e.backend.Push(ctx, next, index)
	switch {
	case errors.Is(err, domain.ErrWriteQuota):
		e.warn(ctx, domain.WarnWriteQuota,
			"backend refused a new entry, falling back to a full navigation",
			"path", next.Path.String())
		next, index, err = e.assign(ctx, next, index)
		if err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("failed to push %s: %w", next.Path.String(), err)
	}

	e.apply(ctx, domain.ActionPush, next, index)
	return nil
}

// assign performs the destructive fallback navigation and adopts whatever the
// backend reports afterwards. State does not survive it.
func (e *Engine) assign(ctx context.Context, next domain.Location, index int) (domain.Location, int, error) {
	if err := e.backend.Assign(ctx, next); err != nil {
		return next, index, fmt.Errorf("failed to assign %s: %w", next.Path.String(), err)
	}
	pos, err := e.backend.Read(ctx)
	if err != nil {
		return next, index, fmt.Errorf("failed to read position after assign: %w", err)
	}
	if !pos.Tracked {
		if err := e.backend.Replace(ctx, pos.Location, index); err != nil {
			return next, index, fmt.Errorf("failed to stamp index after assign: %w", err)
		}
		pos.Index = index
	}
	return pos.Location, pos.Index, nil
}

func (e *Engine) commitReplace(ctx context.Context, next domain.Location) error {
	index := e.Index()
	if err := e.backend.Replace(ctx, next, index); err != nil {
		return fmt.Errorf("failed to replace with %s: %w", next.Path.String(), err)
	}
	e.apply(ctx, domain.ActionReplace, next, index)
	return nil
}

// apply makes (action, location, index) current and notifies listeners.
func (e *Engine) apply(ctx context.Context, action domain.Action, location domain.Location, index int) {
	e.mu.Lock()
	e.action = action
	e.location = location
	e.index = index
	e.mu.Unlock()

	e.logger.Debug("transition committed", "action", action, "path", location.Path.String(), "index", index)
	e.emitCommit(ctx, action, location, index)
	e.listeners.Broadcast(domain.Update{Action: action, Location: location, Index: index})
}
