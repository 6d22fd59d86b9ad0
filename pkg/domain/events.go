package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCommit  EventType = "commit"
	EventBlock   EventType = "block"
	EventRevert  EventType = "revert"
	EventWarning EventType = "warning"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// CommitEvent is emitted after a transition became current.
type CommitEvent struct {
	EventBase
	Action   Action   `json:"action"`
	Location Location `json:"location"`
	Index    int      `json:"index"`
}

// BlockEvent is emitted when a transition is offered to blockers.
type BlockEvent struct {
	EventBase
	Action   Action   `json:"action"`
	Location Location `json:"location"`
	Blockers int      `json:"blockers"`
}

// RevertEvent is emitted when an already-applied POP is being undone.
type RevertEvent struct {
	EventBase
	From  int `json:"from"`
	To    int `json:"to"`
	Delta int `json:"delta"`
}

// WarningEvent reports a non-fatal misuse or an unenforceable block.
type WarningEvent struct {
	EventBase
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Warning codes.
const (
	WarnSamePath     = "same_path"
	WarnUntrackedPop = "untracked_pop"
	WarnWriteQuota   = "write_quota"
)

// LifecycleHooks defines callbacks for history observability.
type LifecycleHooks struct {
	OnCommit  func(context.Context, *CommitEvent)
	OnBlock   func(context.Context, *BlockEvent)
	OnRevert  func(context.Context, *RevertEvent)
	OnWarning func(context.Context, *WarningEvent)
}

// NewEventBase stamps an event header.
func NewEventBase(t EventType) EventBase {
	return EventBase{Timestamp: time.Now(), Type: t}
}
