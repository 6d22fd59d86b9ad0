package ports

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
)

// Backend owns the authoritative position pointer of a history and translates
// engine operations into calls on the environment.
type Backend interface {
	// Read returns the current position. A position the backend holds no index
	// for is reported with Tracked set to false.
	Read(ctx context.Context) (domain.Position, error)

	// Push records loc as a new entry at index, forward of the current one.
	// Entries after the current one are discarded.
	// It returns domain.ErrWriteQuota when the environment refuses new entries.
	Push(ctx context.Context, loc domain.Location, index int) error

	// Replace overwrites the current entry with loc, stamped with index.
	Replace(ctx context.Context, loc domain.Location, index int) error

	// Go asks the environment to move by delta entries.
	// The effect is reported later through Subscribe, not by the return value.
	Go(ctx context.Context, delta int) error

	// Assign performs a full, destructive navigation to loc. Used as the
	// fallback when Push fails with domain.ErrWriteQuota. State is not kept.
	Assign(ctx context.Context, loc domain.Location) error

	// Href renders the address a link to p should use.
	Href(p domain.Path) string

	// Subscribe registers fn to be called whenever the position changed by
	// something other than Push, Replace or Assign.
	Subscribe(fn func(context.Context)) (unsubscribe func())
}
