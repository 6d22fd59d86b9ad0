package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/events"
	"github.com/aretw0/waypoint/pkg/ports"
)

// Engine is the transition state machine of a single history.
//
// It owns the current (action, location, index) triple, runs the blocking
// handshake for push and replace, and reconciles backend-originated moves
// (POP) with the registered blockers. The mutex only guards fields; it is
// never held while calling the backend, blockers or listeners, so all of
// those may call back into the engine.
type Engine struct {
	backend ports.Backend
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	guard   ports.UnloadGuard

	listeners *events.Dispatcher[domain.Update]
	blockers  *events.Dispatcher[domain.Transition]

	mu         sync.Mutex
	action     domain.Action
	location   domain.Location
	index      int
	blockedPop *domain.Transition
	redo       *pendingRedo
	closed     bool

	unsubscribe func()
}

// pendingRedo marks an approved POP replay: the next backend notification
// landing on index is accepted without asking blockers again.
type pendingRedo struct {
	index int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithUnloadGuard sets the guard armed while blockers are registered.
// Without it the engine uses the backend when it implements ports.UnloadGuard.
func WithUnloadGuard(guard ports.UnloadGuard) EngineOption {
	return func(e *Engine) {
		e.guard = guard
	}
}

// NewEngine reads the backend's current position and subscribes to its
// notifications. An entry the backend holds no index for is stamped with
// index 0 before anything else happens.
func NewEngine(ctx context.Context, backend ports.Backend, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		backend: backend,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		action:  domain.ActionPop,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.guard == nil {
		if g, ok := backend.(ports.UnloadGuard); ok {
			e.guard = g
		}
	}

	e.listeners = events.New(events.WithRecover[domain.Update](func(r any) {
		e.logger.Error("listener panicked", "panic", r)
	}))
	e.blockers = events.New(events.WithRecover[domain.Transition](func(r any) {
		e.logger.Error("blocker panicked", "panic", r)
	}))

	pos, err := backend.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read initial position: %w", err)
	}
	if !pos.Tracked {
		pos.Index = 0
		if err := backend.Replace(ctx, pos.Location, 0); err != nil {
			return nil, fmt.Errorf("failed to stamp initial index: %w", err)
		}
	}
	e.location = pos.Location
	e.index = pos.Index

	e.unsubscribe = backend.Subscribe(e.handlePop)

	e.logger.Debug("history initialized", "path", pos.Location.Path.String(), "index", pos.Index)
	return e, nil
}

// Action returns the action that produced the current location.
func (e *Engine) Action() domain.Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.action
}

// Location returns the current location.
func (e *Engine) Location() domain.Location {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.location
}

// Index returns the position of the current location in the stack.
func (e *Engine) Index() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// Snapshot returns action, location and index read together.
func (e *Engine) Snapshot() domain.Update {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.Update{Action: e.action, Location: e.location, Index: e.index}
}

// Backend returns the backend the engine writes to.
func (e *Engine) Backend() ports.Backend {
	return e.backend
}

// Listen registers fn to be called after every committed transition.
func (e *Engine) Listen(fn domain.Listener) (unlisten func()) {
	return e.listeners.Register(fn)
}

// Block registers fn to be consulted before transitions. The unload guard is
// armed while at least one blocker is registered.
func (e *Engine) Block(fn domain.Blocker) (unblock func()) {
	e.mu.Lock()
	unregister := e.blockers.Register(fn)
	first := e.blockers.Len() == 1
	e.mu.Unlock()

	if first && e.guard != nil {
		e.guard.Arm()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			unregister()
			last := e.blockers.Len() == 0
			e.mu.Unlock()

			if last && e.guard != nil {
				e.guard.Disarm()
			}
		})
	}
}

// Blockers returns the number of registered blockers.
func (e *Engine) Blockers() int {
	return e.blockers.Len()
}

// Close stops listening to the backend. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	unsubscribe := e.unsubscribe
	armed := e.blockers.Len() > 0
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if armed && e.guard != nil {
		e.guard.Disarm()
	}
	return nil
}
