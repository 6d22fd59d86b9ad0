package middleware

import (
	"fmt"
	"regexp"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
)

// Mask replaces the value of every masked field.
const Mask = "***"

type piiCodec struct {
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching the
// patterns before user state reaches storage. Masking is one way: reading
// back returns the masked values.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	c := &piiCodec{patterns: patterns}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &store{next: next, codec: c}
	}, nil
}

func (c *piiCodec) encode(state *domain.HistoryState) (*domain.HistoryState, error) {
	if state == nil {
		return nil, nil
	}
	usr, ok := state.Usr.(map[string]any)
	if !ok {
		return state, nil
	}

	// Deep Clone to avoid side effects on the location held by the engine.
	cloned := *state
	masked := deepCopyMap(usr)
	maskMap(masked, c.patterns)
	cloned.Usr = masked
	return &cloned, nil
}

func (c *piiCodec) decode(state *domain.HistoryState) (*domain.HistoryState, error) {
	return state, nil
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		// Handle nested maps
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v // shallow copy of value
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		// Check key against patterns
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}

		// Recurse if map
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
