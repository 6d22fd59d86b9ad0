package middleware

import (
	"context"
	"errors"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
)

var errNoEntries = errors.New("session history cannot list entries")

// Middleware allows wrapping a HistoryStore to add behavior.
type Middleware func(ports.HistoryStore) ports.HistoryStore

// Chain wraps store so that mws[0] sees writes first.
// Chain(store, pii, encryption) masks, then encrypts, then stores.
func Chain(store ports.HistoryStore, mws ...Middleware) ports.HistoryStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// codec transforms the record of every entry on its way to and from storage.
type codec interface {
	encode(*domain.HistoryState) (*domain.HistoryState, error)
	decode(*domain.HistoryState) (*domain.HistoryState, error)
}

type store struct {
	next  ports.HistoryStore
	codec codec
}

func (s *store) Session(sessionID string) ports.SessionHistory {
	return &sessionHistory{next: s.next.Session(sessionID), codec: s.codec}
}

func (s *store) List(ctx context.Context) ([]string, error) {
	return s.next.List(ctx)
}

func (s *store) Delete(ctx context.Context, sessionID string) error {
	return s.next.Delete(ctx, sessionID)
}

// sessionHistory applies the codec to records and forwards everything else,
// including the optional EntryLister and UnloadGuard.
type sessionHistory struct {
	next  ports.SessionHistory
	codec codec
}

func (h *sessionHistory) Current(ctx context.Context) (domain.Entry, error) {
	e, err := h.next.Current(ctx)
	if err != nil {
		return e, err
	}
	if e.State, err = h.codec.decode(e.State); err != nil {
		return domain.Entry{}, err
	}
	return e, nil
}

func (h *sessionHistory) PushState(ctx context.Context, state *domain.HistoryState, url string) error {
	encoded, err := h.codec.encode(state)
	if err != nil {
		return err
	}
	return h.next.PushState(ctx, encoded, url)
}

func (h *sessionHistory) ReplaceState(ctx context.Context, state *domain.HistoryState, url string) error {
	encoded, err := h.codec.encode(state)
	if err != nil {
		return err
	}
	return h.next.ReplaceState(ctx, encoded, url)
}

func (h *sessionHistory) Go(ctx context.Context, delta int) error {
	return h.next.Go(ctx, delta)
}

func (h *sessionHistory) Assign(ctx context.Context, url string) error {
	return h.next.Assign(ctx, url)
}

func (h *sessionHistory) Len(ctx context.Context) (int, error) {
	return h.next.Len(ctx)
}

func (h *sessionHistory) Subscribe(fn func(context.Context)) func() {
	return h.next.Subscribe(fn)
}

func (h *sessionHistory) Entries(ctx context.Context) ([]domain.Entry, int, error) {
	lister, ok := h.next.(ports.EntryLister)
	if !ok {
		return nil, 0, errNoEntries
	}
	entries, current, err := lister.Entries(ctx)
	if err != nil {
		return nil, 0, err
	}
	for i := range entries {
		if entries[i].State, err = h.codec.decode(entries[i].State); err != nil {
			return nil, 0, err
		}
	}
	return entries, current, nil
}

func (h *sessionHistory) Arm() {
	if g, ok := h.next.(ports.UnloadGuard); ok {
		g.Arm()
	}
}

func (h *sessionHistory) Disarm() {
	if g, ok := h.next.(ports.UnloadGuard); ok {
		g.Disarm()
	}
}
