package file

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/events"
	"github.com/aretw0/waypoint/pkg/ports"
)

// SessionHistory implements ports.SessionHistory on top of a Store file.
// Every operation reads and rewrites the document, so separate processes
// observe each other's writes. Notifications are in-process only.
type SessionHistory struct {
	store      *Store
	id         string
	maxEntries int

	mu          sync.Mutex
	subscribers *events.Dispatcher[context.Context]
}

// Open returns the session history stored under sessionID.
// The file is created on first write.
func (s *Store) Open(sessionID string) *SessionHistory {
	return &SessionHistory{
		store:       s,
		id:          sessionID,
		maxEntries:  s.maxEntries,
		subscribers: events.New[context.Context](),
	}
}

// Session returns the history stored under sessionID.
func (s *Store) Session(sessionID string) ports.SessionHistory {
	return s.Open(sessionID)
}

// ID returns the session id.
func (h *SessionHistory) ID() string {
	return h.id
}

// Current returns the entry at the pointer.
func (h *SessionHistory) Current(ctx context.Context) (domain.Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.load(h.id)
	if err != nil {
		return domain.Entry{}, err
	}
	return doc.Entries[doc.Index], nil
}

// PushState appends an entry after the pointer, discarding forward entries.
func (h *SessionHistory) PushState(ctx context.Context, state *domain.HistoryState, url string) error {
	return h.update(func(doc *document) error {
		if h.maxEntries > 0 && doc.Index+1 >= h.maxEntries {
			return domain.ErrWriteQuota
		}
		push(doc, domain.Entry{URL: url, State: state})
		return nil
	})
}

// ReplaceState overwrites the entry at the pointer.
func (h *SessionHistory) ReplaceState(ctx context.Context, state *domain.HistoryState, url string) error {
	return h.update(func(doc *document) error {
		doc.Entries[doc.Index] = domain.Entry{URL: url, State: state}
		return nil
	})
}

// Go moves the pointer and notifies subscribers. Out-of-range moves are ignored.
func (h *SessionHistory) Go(ctx context.Context, delta int) error {
	moved := false
	err := h.update(func(doc *document) error {
		next := doc.Index + delta
		if delta == 0 || next < 0 || next >= len(doc.Entries) {
			return errNoChange
		}
		doc.Index = next
		moved = true
		return nil
	})
	if err != nil {
		return err
	}
	if moved {
		h.subscribers.Broadcast(ctx)
	}
	return nil
}

// Assign navigates to url with no state.
func (h *SessionHistory) Assign(ctx context.Context, url string) error {
	return h.update(func(doc *document) error {
		push(doc, domain.Entry{URL: url})
		return nil
	})
}

// Len returns the number of entries.
func (h *SessionHistory) Len(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.load(h.id)
	if err != nil {
		return 0, err
	}
	return len(doc.Entries), nil
}

// Entries returns all entries and the pointer.
func (h *SessionHistory) Entries(ctx context.Context) ([]domain.Entry, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.load(h.id)
	if err != nil {
		return nil, 0, err
	}
	return doc.Entries, doc.Index, nil
}

// Subscribe registers fn for moves caused by Go.
func (h *SessionHistory) Subscribe(fn func(context.Context)) func() {
	return h.subscribers.Register(fn)
}

var errNoChange = errors.New("no change")

// update runs fn on the loaded document and saves it unless fn fails.
// errNoChange skips the write without reporting an error.
func (h *SessionHistory) update(fn func(doc *document) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.store.load(h.id)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	return h.store.save(h.id, doc)
}

func push(doc *document, e domain.Entry) {
	doc.Entries = append(doc.Entries[:doc.Index+1], e)
	doc.Index = len(doc.Entries) - 1
}
