// Package browser implements the durable-URL history backend: locations are
// written to a session history as the visible address, and the state, key and
// index ride along in the entry's opaque record.
package browser

import (
	"context"
	"fmt"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/urlpath"
)

// Backend implements ports.Backend over a ports.SessionHistory.
type Backend struct {
	history ports.SessionHistory
}

// New creates a browser backend writing to history.
func New(history ports.SessionHistory) *Backend {
	return &Backend{history: history}
}

// SessionHistory returns the underlying session history.
func (b *Backend) SessionHistory() ports.SessionHistory {
	return b.history
}

// Read decodes the current session-history entry.
func (b *Backend) Read(ctx context.Context) (domain.Position, error) {
	entry, err := b.history.Current(ctx)
	if err != nil {
		return domain.Position{}, fmt.Errorf("failed to read session history: %w", err)
	}
	return Decode(entry, urlpath.Parse(entry.URL)), nil
}

// Push records loc as a new session-history entry.
func (b *Backend) Push(ctx context.Context, loc domain.Location, index int) error {
	return b.history.PushState(ctx, Record(loc, index), urlpath.Create(loc.Path))
}

// Replace overwrites the current session-history entry.
func (b *Backend) Replace(ctx context.Context, loc domain.Location, index int) error {
	return b.history.ReplaceState(ctx, Record(loc, index), urlpath.Create(loc.Path))
}

// Go moves the session history.
func (b *Backend) Go(ctx context.Context, delta int) error {
	return b.history.Go(ctx, delta)
}

// Assign loads the address of loc from scratch.
func (b *Backend) Assign(ctx context.Context, loc domain.Location) error {
	return b.history.Assign(ctx, urlpath.Create(loc.Path))
}

// Href renders p as a plain path.
func (b *Backend) Href(p domain.Path) string {
	return urlpath.Create(p)
}

// Subscribe forwards session-history moves.
func (b *Backend) Subscribe(fn func(context.Context)) func() {
	return b.history.Subscribe(fn)
}

// Arm forwards to the session history when it can guard unloads.
func (b *Backend) Arm() {
	if g, ok := b.history.(ports.UnloadGuard); ok {
		g.Arm()
	}
}

// Disarm forwards to the session history when it can guard unloads.
func (b *Backend) Disarm() {
	if g, ok := b.history.(ports.UnloadGuard); ok {
		g.Disarm()
	}
}

// Entries forwards to the session history when it can enumerate entries.
func (b *Backend) Entries(ctx context.Context) ([]domain.Entry, int, error) {
	if l, ok := b.history.(ports.EntryLister); ok {
		return l.Entries(ctx)
	}
	return nil, 0, fmt.Errorf("session history %T cannot list entries", b.history)
}

// Record builds the opaque record stored with loc.
func Record(loc domain.Location, index int) *domain.HistoryState {
	return &domain.HistoryState{Usr: loc.State, Key: loc.Key, Idx: &index}
}

// Decode rebuilds a position from an entry's record and its parsed address.
func Decode(entry domain.Entry, p domain.Path) domain.Position {
	if p.Pathname == "" {
		p.Pathname = domain.DefaultPathname
	}
	loc := domain.Location{Path: p, Key: domain.DefaultKey}
	pos := domain.Position{}

	if s := entry.State; s != nil {
		loc.State = s.Usr
		if s.Key != "" {
			loc.Key = s.Key
		}
		if s.Idx != nil {
			pos.Index = *s.Idx
			pos.Tracked = true
		}
	}
	pos.Location = loc
	return pos
}
