package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/waypoint/pkg/ports"
)

// Store implements ports.HistoryStore with in-memory session histories.
type Store struct {
	mu        sync.Mutex
	histories map[string]*SessionHistory
	opts      []SessionOption
}

// NewStore creates an empty store. opts apply to every session it creates.
func NewStore(opts ...SessionOption) *Store {
	return &Store{
		histories: make(map[string]*SessionHistory),
		opts:      opts,
	}
}

// Open returns the history for sessionID, creating it if needed.
func (s *Store) Open(sessionID string) *SessionHistory {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[sessionID]
	if !ok {
		h = NewSessionHistory(s.opts...)
		s.histories[sessionID] = h
	}
	return h
}

// Session implements ports.HistoryStore.
func (s *Store) Session(sessionID string) ports.SessionHistory {
	return s.Open(sessionID)
}

// List returns the ids of all sessions, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, sessionID)
	return nil
}
