package memory

import (
	"context"
	"sync"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/events"
	"github.com/aretw0/waypoint/pkg/urlpath"
)

// Backend implements ports.Backend as a plain ordered list of locations.
// It has no external persistence and is meant for tests and non-browser hosts.
// Safe for concurrent use.
type Backend struct {
	mu      sync.Mutex
	entries []domain.Location
	index   int

	subscribers *events.Dispatcher[context.Context]
}

// BackendOption configures a memory Backend.
type BackendOption func(*backendConfig)

type backendConfig struct {
	entries []domain.Location
	index   *int
}

// WithInitialEntries seeds the stack with the given addresses.
// Each entry gets a fresh key and no state.
func WithInitialEntries(addrs ...string) BackendOption {
	return func(c *backendConfig) {
		for _, addr := range addrs {
			p := urlpath.Parse(addr)
			if p.Pathname == "" {
				p.Pathname = domain.DefaultPathname
			}
			c.entries = append(c.entries, domain.NewLocation(p, nil))
		}
	}
}

// WithInitialLocations seeds the stack with fully built locations.
func WithInitialLocations(locs ...domain.Location) BackendOption {
	return func(c *backendConfig) {
		c.entries = append(c.entries, locs...)
	}
}

// WithInitialIndex selects the starting entry. It is clamped to the stack.
// Defaults to the last entry.
func WithInitialIndex(i int) BackendOption {
	return func(c *backendConfig) {
		c.index = &i
	}
}

// NewBackend creates an in-memory backend. Without initial entries the stack
// holds a single "/" entry.
func NewBackend(opts ...BackendOption) *Backend {
	cfg := &backendConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.entries) == 0 {
		cfg.entries = []domain.Location{domain.NewLocation(domain.Path{Pathname: domain.DefaultPathname}, nil)}
	}

	index := len(cfg.entries) - 1
	if cfg.index != nil {
		index = clamp(*cfg.index, 0, len(cfg.entries)-1)
	}

	return &Backend{
		entries:     cfg.entries,
		index:       index,
		subscribers: events.New[context.Context](),
	}
}

// Read returns the current entry. Memory positions are always tracked.
func (b *Backend) Read(ctx context.Context) (domain.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.Position{Index: b.index, Tracked: true, Location: b.entries[b.index]}, nil
}

// Push drops entries forward of the current one and appends loc.
// The list position is the record, so index is not stored separately.
func (b *Backend) Push(ctx context.Context, loc domain.Location, index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.push(loc)
	return nil
}

func (b *Backend) push(loc domain.Location) {
	next := make([]domain.Location, 0, b.index+2)
	next = append(next, b.entries[:b.index+1]...)
	b.entries = append(next, loc)
	b.index = len(b.entries) - 1
}

// Replace overwrites the current entry.
func (b *Backend) Replace(ctx context.Context, loc domain.Location, index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.index] = loc
	return nil
}

// Go moves the pointer by delta, clamped to the stack, and notifies
// subscribers synchronously when it actually moved.
func (b *Backend) Go(ctx context.Context, delta int) error {
	b.mu.Lock()
	next := clamp(b.index+delta, 0, len(b.entries)-1)
	moved := next != b.index
	b.index = next
	b.mu.Unlock()

	if moved {
		b.subscribers.Broadcast(ctx)
	}
	return nil
}

// Assign behaves like Push of a stateless entry; there is no document to reload.
func (b *Backend) Assign(ctx context.Context, loc domain.Location) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	loc.State = nil
	b.push(loc)
	return nil
}

// Href renders p as a plain path.
func (b *Backend) Href(p domain.Path) string {
	return urlpath.Create(p)
}

// Subscribe registers fn for moves caused by Go.
func (b *Backend) Subscribe(fn func(context.Context)) func() {
	return b.subscribers.Register(fn)
}

// Entries returns a copy of the stack and the current index.
func (b *Backend) Entries(ctx context.Context) ([]domain.Entry, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.Entry, len(b.entries))
	for i, loc := range b.entries {
		idx := i
		out[i] = domain.Entry{
			URL:   urlpath.Create(loc.Path),
			State: &domain.HistoryState{Usr: loc.State, Key: loc.Key, Idx: &idx},
		}
	}
	return out, b.index, nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
