package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}, nil
}

// StackTable describes a session stack as a markdown table.
// The current entry is marked with an arrow.
func StackTable(title string, entries []domain.Entry, current int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", title)
	sb.WriteString("| | # | Address | Key | State |\n")
	sb.WriteString("|---|---|---|---|---|\n")

	for i, entry := range entries {
		marker := ""
		if i == current {
			marker = "→"
		}
		key, state := "", ""
		if entry.State != nil {
			key = entry.State.Key
			if entry.State.Idx == nil {
				key += " (untracked)"
			}
			if entry.State.Usr != nil {
				state = fmt.Sprintf("%v", entry.State.Usr)
			}
		} else {
			key = "(untracked)"
		}
		fmt.Fprintf(&sb, "| %s | %d | `%s` | %s | %s |\n",
			marker, i, entry.URL, escapeCell(key), escapeCell(state))
	}
	return sb.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
