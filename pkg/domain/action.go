package domain

import "fmt"

// Action describes how the current location came to be current.
// It is never a pending intention.
type Action string

const (
	// ActionPop is a change to an arbitrary index in the stack, such as a
	// back or forward navigation. It is also the initial action.
	ActionPop Action = "POP"

	// ActionPush indicates a new entry was added to the stack.
	ActionPush Action = "PUSH"

	// ActionReplace indicates the entry at the current index was replaced.
	ActionReplace Action = "REPLACE"
)

// String implements fmt.Stringer.
func (a Action) String() string {
	return string(a)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	switch v := Action(text); v {
	case ActionPop, ActionPush, ActionReplace:
		*a = v
		return nil
	default:
		return fmt.Errorf("unknown action %q", string(text))
	}
}
