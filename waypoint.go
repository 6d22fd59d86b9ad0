package waypoint

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/waypoint/internal/runtime"
	"github.com/aretw0/waypoint/pkg/adapters/browser"
	"github.com/aretw0/waypoint/pkg/adapters/hash"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
)

// Version is the library version reported by the CLI and the HTTP API.
const Version = "0.3.0"

// History is the high-level entry point of the library.
// It wraps the internal runtime and exposes the host-facing navigation API.
type History struct {
	runtime *runtime.Engine
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	guard   ports.UnloadGuard
	Name    string

	memoryOpts []memory.BackendOption
}

// Option defines a functional option for configuring a History.
type Option func(*History)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(h *History) {
		h.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		h.logger = logger
	}
}

// WithUnloadGuard sets the guard armed while blockers are registered.
func WithUnloadGuard(guard ports.UnloadGuard) Option {
	return func(h *History) {
		h.guard = guard
	}
}

// WithName labels the history in log lines (e.g. a session id).
func WithName(name string) Option {
	return func(h *History) {
		h.Name = name
	}
}

// WithInitialEntries seeds the stack of a memory history (NewMemory only).
func WithInitialEntries(addrs ...string) Option {
	return func(h *History) {
		h.memoryOpts = append(h.memoryOpts, memory.WithInitialEntries(addrs...))
	}
}

// WithInitialIndex selects the starting entry of a memory history (NewMemory only).
func WithInitialIndex(i int) Option {
	return func(h *History) {
		h.memoryOpts = append(h.memoryOpts, memory.WithInitialIndex(i))
	}
}

// New creates a History over any backend.
func New(ctx context.Context, backend ports.Backend, opts ...Option) (*History, error) {
	h := newHistory(opts)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(h.hooks),
		runtime.WithLogger(h.logger),
	}
	if h.guard != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithUnloadGuard(h.guard))
	}

	eng, err := runtime.NewEngine(ctx, backend, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	h.runtime = eng
	return h, nil
}

// NewMemory creates a History kept entirely in memory.
func NewMemory(ctx context.Context, opts ...Option) (*History, error) {
	h := newHistory(opts)
	return New(ctx, memory.NewBackend(h.memoryOpts...), opts...)
}

// NewBrowser creates a History writing durable URLs to a session history.
func NewBrowser(ctx context.Context, sh ports.SessionHistory, opts ...Option) (*History, error) {
	return New(ctx, browser.New(sh), opts...)
}

// NewHash creates a History writing locations into the hash fragment of a
// session history.
func NewHash(ctx context.Context, sh ports.SessionHistory, hashOpts []hash.Option, opts ...Option) (*History, error) {
	return New(ctx, hash.New(sh, hashOpts...), opts...)
}

func newHistory(opts []Option) *History {
	h := &History{}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if h.Name != "" {
		h.logger = h.logger.With("history", h.Name)
	}
	return h
}

// Action returns the action that produced the current location.
func (h *History) Action() domain.Action {
	return h.runtime.Action()
}

// Location returns the current location.
func (h *History) Location() domain.Location {
	return h.runtime.Location()
}

// Index returns the position of the current location in the stack.
func (h *History) Index() int {
	return h.runtime.Index()
}

// Snapshot returns action, location and index read together.
func (h *History) Snapshot() domain.Update {
	return h.runtime.Snapshot()
}

// CreateHref renders the address a link to to should use.
func (h *History) CreateHref(to string) string {
	return h.runtime.CreateHref(to)
}

// Push adds a new entry. to may be partial ("?tab=2") or relative ("../up").
func (h *History) Push(ctx context.Context, to string, state any) error {
	return h.runtime.Push(ctx, to, state)
}

// PushPath adds a new entry from a partial path.
func (h *History) PushPath(ctx context.Context, to domain.Path, state any) error {
	return h.runtime.PushPath(ctx, to, state)
}

// Replace overwrites the current entry.
func (h *History) Replace(ctx context.Context, to string, state any) error {
	return h.runtime.Replace(ctx, to, state)
}

// ReplacePath overwrites the current entry from a partial path.
func (h *History) ReplacePath(ctx context.Context, to domain.Path, state any) error {
	return h.runtime.ReplacePath(ctx, to, state)
}

// Go moves by delta entries. The move is reported to listeners once the
// backend confirms it.
func (h *History) Go(ctx context.Context, delta int) error {
	return h.runtime.Go(ctx, delta)
}

// Back moves one entry back.
func (h *History) Back(ctx context.Context) error {
	return h.runtime.Back(ctx)
}

// Forward moves one entry forward.
func (h *History) Forward(ctx context.Context) error {
	return h.runtime.Forward(ctx)
}

// Listen registers fn to be called after every committed transition.
func (h *History) Listen(fn domain.Listener) (unlisten func()) {
	return h.runtime.Listen(fn)
}

// Block registers fn to be consulted before every transition.
// A blocker lets a transition through by calling its Retry method.
func (h *History) Block(fn domain.Blocker) (unblock func()) {
	return h.runtime.Block(fn)
}

// Blockers returns the number of registered blockers.
func (h *History) Blockers() int {
	return h.runtime.Blockers()
}

// Backend returns the backend the history writes to.
func (h *History) Backend() ports.Backend {
	return h.runtime.Backend()
}

// Close detaches the history from its backend.
func (h *History) Close() error {
	return h.runtime.Close()
}
