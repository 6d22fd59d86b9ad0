package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/waypoint/pkg/domain"
)

// StackOverlay contains dynamic state data to visualize on the stack.
type StackOverlay struct {
	// Current is the index of the current entry, or -1 for none.
	Current int
}

// GenerateMermaid produces a Mermaid flowchart of a history stack, oldest
// entry first. It applies semantic styling:
// - Root entry: ((Circle))
// - Entry not created by this library (no index record): [/Parallelogram/]
// - Default: [Rectangle]
// Entries after the current one are reachable only by going forward and are
// linked with dotted arrows.
func GenerateMermaid(entries []domain.Entry, overlay *StackOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	current := len(entries) - 1
	if overlay != nil {
		current = overlay.Current
	}

	for i, entry := range entries {
		id := nodeID(i)

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case entry.State == nil || entry.State.Idx == nil:
			opener, closer = "[/", "/]"
		}

		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, sanitizeLabel(entry.URL), closer))

		if i == 0 {
			continue
		}
		arrow := "-->"
		if current >= 0 && i > current {
			arrow = "-.->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", nodeID(i-1), arrow, id))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for i := range entries {
			switch {
			case i == overlay.Current:
				sb.WriteString(fmt.Sprintf("    class %s current;\n", nodeID(i)))
			case i < overlay.Current:
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", nodeID(i)))
			}
		}
	}

	return sb.String()
}

func nodeID(i int) string {
	return fmt.Sprintf("e%d", i)
}

// sanitizeLabel escapes characters Mermaid treats specially inside a quoted label.
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	if s == "" {
		return "/"
	}
	return s
}
