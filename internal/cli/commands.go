package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/presentation/graph"
	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
)

// ParseDelta parses a relative move such as "-2" or "+1".
func ParseDelta(s string) (int, error) {
	delta, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidDelta, s)
	}
	return delta, nil
}

// ParseState decodes a state argument. Text that is not JSON is kept as a string.
func ParseState(s string) any {
	if s == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// Navigate applies one navigation command to the session and returns the
// resulting position. Supported ops: push, replace, go, back, forward.
func (a *App) Navigate(ctx context.Context, sessionID, op string, args []string) (domain.Update, error) {
	var update domain.Update
	err := a.Sessions.Do(ctx, sessionID, func(ctx context.Context, h *waypoint.History) error {
		if err := apply(ctx, h, op, args); err != nil {
			return err
		}
		update = h.Snapshot()
		return nil
	})
	return update, err
}

func apply(ctx context.Context, h *waypoint.History, op string, args []string) error {
	switch op {
	case "push", "replace":
		if len(args) == 0 {
			return fmt.Errorf("%s needs a target", op)
		}
		var state any
		if len(args) > 1 {
			state = ParseState(strings.Join(args[1:], " "))
		}
		if op == "push" {
			return h.Push(ctx, args[0], state)
		}
		return h.Replace(ctx, args[0], state)
	case "go":
		if len(args) != 1 {
			return fmt.Errorf("%w: go needs exactly one delta", domain.ErrInvalidDelta)
		}
		delta, err := ParseDelta(args[0])
		if err != nil {
			return err
		}
		return h.Go(ctx, delta)
	case "back":
		return h.Back(ctx)
	case "forward":
		return h.Forward(ctx)
	default:
		return fmt.Errorf("unknown command %q", op)
	}
}

// Entries returns the raw stack of a session and the current index.
func (a *App) Entries(ctx context.Context, sessionID string) ([]domain.Entry, int, error) {
	lister, ok := a.Store.Session(sessionID).(ports.EntryLister)
	if !ok {
		return nil, 0, fmt.Errorf("backend %q cannot list entries", a.Config.Backend)
	}
	return lister.Entries(ctx)
}

// Show writes the stack of a session as a table. When render is set the
// markdown is rendered for the terminal.
func (a *App) Show(ctx context.Context, sessionID string, w io.Writer, render bool) error {
	entries, current, err := a.Entries(ctx, sessionID)
	if err != nil {
		return err
	}
	table := tui.StackTable("session "+sessionID, entries, current)
	if render {
		r, err := tui.NewRenderer()
		if err != nil {
			return err
		}
		if table, err = r(table); err != nil {
			return fmt.Errorf("failed to render stack: %w", err)
		}
	}
	_, err = io.WriteString(w, table)
	return err
}

// Graph writes the stack of a session as a Mermaid diagram.
func (a *App) Graph(ctx context.Context, sessionID string, w io.Writer) error {
	entries, current, err := a.Entries(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(entries, &graph.StackOverlay{Current: current}))
	return err
}

// FormatUpdate describes a position in one line.
func FormatUpdate(u domain.Update) string {
	line := fmt.Sprintf("%s %s (index %d)", u.Action, u.Location.Path.String(), u.Index)
	if u.Location.State != nil {
		if b, err := json.Marshal(u.Location.State); err == nil {
			line += " state=" + string(b)
		}
	}
	return line
}
