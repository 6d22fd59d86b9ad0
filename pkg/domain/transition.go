package domain

import (
	"context"
	"sync"
)

// Transition is a proposed change offered to blockers.
// A blocker that decides to let it through calls Retry, now or later.
type Transition struct {
	Action   Action
	Location Location

	retry *retryOnce
}

type retryOnce struct {
	once sync.Once
	fn   func(context.Context) error
}

// NewTransition creates a transition whose Retry invokes fn at most once.
func NewTransition(action Action, location Location, fn func(context.Context) error) Transition {
	return Transition{
		Action:   action,
		Location: location,
		retry:    &retryOnce{fn: fn},
	}
}

// Retry approves the transition and applies it.
// Only the first call has an effect; later calls return nil.
func (t Transition) Retry(ctx context.Context) error {
	if t.retry == nil || t.retry.fn == nil {
		return nil
	}
	var err error
	t.retry.once.Do(func() {
		err = t.retry.fn(ctx)
	})
	return err
}

// Update is delivered to listeners after a transition is committed.
type Update struct {
	Action   Action   `json:"action"`
	Location Location `json:"location"`
	Index    int      `json:"index"`
}

// Listener is notified after a transition is committed.
type Listener func(Update)

// Blocker is consulted before a transition is considered approved.
type Blocker func(Transition)
