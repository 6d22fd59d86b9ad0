package memory

import (
	"context"
	"sync"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/events"
)

// SessionHistory implements ports.SessionHistory in memory. It simulates a
// browser session history inside the process: Go notifies synchronously.
// Safe for concurrent use.
type SessionHistory struct {
	mu         sync.Mutex
	entries    []domain.Entry
	index      int
	maxEntries int
	armed      bool

	subscribers *events.Dispatcher[context.Context]
}

// SessionOption configures a memory SessionHistory.
type SessionOption func(*SessionHistory)

// WithMaxEntries caps the number of entries PushState may create.
// Zero means unlimited.
func WithMaxEntries(n int) SessionOption {
	return func(s *SessionHistory) {
		s.maxEntries = n
	}
}

// WithEntries seeds the history. The pointer starts on the last entry.
func WithEntries(entries ...domain.Entry) SessionOption {
	return func(s *SessionHistory) {
		for _, e := range entries {
			s.entries = append(s.entries, copyEntry(e))
		}
		s.index = len(s.entries) - 1
	}
}

// NewSessionHistory creates an in-memory session history holding a single
// stateless "/" entry unless seeded.
func NewSessionHistory(opts ...SessionOption) *SessionHistory {
	s := &SessionHistory{
		subscribers: events.New[context.Context](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.entries) == 0 {
		s.entries = []domain.Entry{{URL: domain.DefaultPathname}}
		s.index = 0
	}
	return s
}

// Current returns the entry at the pointer.
func (s *SessionHistory) Current(ctx context.Context) (domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyEntry(s.entries[s.index]), nil
}

// PushState appends an entry after the pointer, discarding forward entries.
func (s *SessionHistory) PushState(ctx context.Context, state *domain.HistoryState, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxEntries > 0 && s.index+1 >= s.maxEntries {
		return domain.ErrWriteQuota
	}
	s.push(domain.Entry{URL: url, State: copyState(state)})
	return nil
}

// ReplaceState overwrites the entry at the pointer.
func (s *SessionHistory) ReplaceState(ctx context.Context, state *domain.HistoryState, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.index] = domain.Entry{URL: url, State: copyState(state)}
	return nil
}

// Go moves the pointer and notifies subscribers. Out-of-range moves are ignored.
func (s *SessionHistory) Go(ctx context.Context, delta int) error {
	s.mu.Lock()
	next := s.index + delta
	if delta == 0 || next < 0 || next >= len(s.entries) {
		s.mu.Unlock()
		return nil
	}
	s.index = next
	s.mu.Unlock()

	s.subscribers.Broadcast(ctx)
	return nil
}

// Assign navigates to url with no state.
func (s *SessionHistory) Assign(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.push(domain.Entry{URL: url})
	return nil
}

// Len returns the number of entries.
func (s *SessionHistory) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// Subscribe registers fn for moves caused by Go.
func (s *SessionHistory) Subscribe(fn func(context.Context)) func() {
	return s.subscribers.Register(fn)
}

// Entries returns a copy of all entries and the pointer.
func (s *SessionHistory) Entries(ctx context.Context) ([]domain.Entry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = copyEntry(e)
	}
	return out, s.index, nil
}

// Arm implements ports.UnloadGuard.
func (s *SessionHistory) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
}

// Disarm implements ports.UnloadGuard.
func (s *SessionHistory) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = false
}

// Unload simulates the host discarding the session. It reports false when
// the unload was vetoed because the guard is armed.
func (s *SessionHistory) Unload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.armed
}

func (s *SessionHistory) push(e domain.Entry) {
	next := make([]domain.Entry, 0, s.index+2)
	next = append(next, s.entries[:s.index+1]...)
	s.entries = append(next, e)
	s.index = len(s.entries) - 1
}

func copyEntry(e domain.Entry) domain.Entry {
	return domain.Entry{URL: e.URL, State: copyState(e.State)}
}

func copyState(s *domain.HistoryState) *domain.HistoryState {
	if s == nil {
		return nil
	}
	c := *s
	if s.Idx != nil {
		idx := *s.Idx
		c.Idx = &idx
	}
	return &c
}
