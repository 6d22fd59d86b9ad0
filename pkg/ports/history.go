package ports

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
)

// SessionHistory models a browser-like session history: an ordered list of
// entries with a current pointer, written by durable backends.
//
// PushState and ReplaceState never notify subscribers. Go notifies after the
// pointer moved; a move that would leave the list is a no-op and does not notify.
type SessionHistory interface {
	// Current returns the entry at the pointer.
	// An empty history reports a single root entry with no state.
	Current(ctx context.Context) (domain.Entry, error)

	// PushState drops entries after the pointer, appends one and moves onto it.
	// It returns domain.ErrWriteQuota when the configured cap is reached.
	PushState(ctx context.Context, state *domain.HistoryState, url string) error

	// ReplaceState overwrites the entry at the pointer.
	ReplaceState(ctx context.Context, state *domain.HistoryState, url string) error

	// Go moves the pointer by delta.
	Go(ctx context.Context, delta int) error

	// Assign navigates to url, discarding any state (like loading a new document).
	Assign(ctx context.Context, url string) error

	// Len returns the number of entries.
	Len(ctx context.Context) (int, error)

	// Subscribe registers fn for pointer moves caused by Go.
	Subscribe(fn func(context.Context)) (unsubscribe func())
}

// EntryLister is implemented by session histories that can enumerate entries,
// used by presentation tools.
type EntryLister interface {
	Entries(ctx context.Context) ([]domain.Entry, int, error)
}

// UnloadGuard intercepts the environment's "about to discard this session"
// signal. It is armed while at least one blocker is registered.
type UnloadGuard interface {
	Arm()
	Disarm()
}

// HistoryStore hands out session histories by session id.
type HistoryStore interface {
	// Session returns the history for sessionID, creating it on first write.
	Session(sessionID string) SessionHistory

	// List returns the ids of stored sessions.
	List(ctx context.Context) ([]string, error)

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error
}
