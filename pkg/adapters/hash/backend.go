// Package hash implements the hash-fragment history backend: the location is
// encoded into the fragment of the session-history address, which keeps the
// document address stable for hosts that cannot serve every path.
package hash

import (
	"context"
	"fmt"

	"github.com/aretw0/waypoint/pkg/adapters/browser"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/urlpath"
)

// Backend implements ports.Backend by writing locations into the hash fragment.
type Backend struct {
	history  ports.SessionHistory
	hashType urlpath.HashType
	base     string
}

// Option configures a hash Backend.
type Option func(*Backend)

// WithHashType selects the fragment encoding (default urlpath.HashSlash).
func WithHashType(t urlpath.HashType) Option {
	return func(b *Backend) {
		b.hashType = t
	}
}

// WithBase sets the document address that hrefs are relative to, e.g. "/app/".
func WithBase(base string) Option {
	return func(b *Backend) {
		b.base = urlpath.StripFragment(base)
	}
}

// New creates a hash backend writing to history.
func New(history ports.SessionHistory, opts ...Option) *Backend {
	b := &Backend{
		history:  history,
		hashType: urlpath.HashSlash,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HashType returns the configured fragment encoding.
func (b *Backend) HashType() urlpath.HashType {
	return b.hashType
}

// Read decodes the location held in the current entry's fragment.
func (b *Backend) Read(ctx context.Context) (domain.Position, error) {
	entry, err := b.history.Current(ctx)
	if err != nil {
		return domain.Position{}, fmt.Errorf("failed to read session history: %w", err)
	}
	addr := b.hashType.DecodePath(urlpath.Fragment(entry.URL))
	return browser.Decode(entry, urlpath.Parse(addr)), nil
}

// Push records loc as a new entry.
func (b *Backend) Push(ctx context.Context, loc domain.Location, index int) error {
	return b.history.PushState(ctx, browser.Record(loc, index), b.Href(loc.Path))
}

// Replace overwrites the current entry.
func (b *Backend) Replace(ctx context.Context, loc domain.Location, index int) error {
	return b.history.ReplaceState(ctx, browser.Record(loc, index), b.Href(loc.Path))
}

// Go moves the session history.
func (b *Backend) Go(ctx context.Context, delta int) error {
	return b.history.Go(ctx, delta)
}

// Assign loads the address of loc from scratch.
func (b *Backend) Assign(ctx context.Context, loc domain.Location) error {
	return b.history.Assign(ctx, b.Href(loc.Path))
}

// Href renders p as base + "#" + encoded path.
func (b *Backend) Href(p domain.Path) string {
	return b.base + "#" + b.hashType.EncodePath(urlpath.Create(p))
}

// Subscribe forwards session-history moves, which include manual fragment edits.
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
