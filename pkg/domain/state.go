package domain

// Position pairs a location with its index in the backend's own stack.
// It is the unit of truth used to compute reconciliation deltas.
type Position struct {
	// Index is the position of Location in the backend stack.
	// Only meaningful when Tracked is true.
	Index int

	// Tracked is false when the backend holds no index for this entry,
	// e.g. on first load or for an entry created outside the library.
	Tracked bool

	Location Location
}

// HistoryState is the opaque record a durable backend stores alongside each
// entry of a session history.
type HistoryState struct {
	// Usr is the user state of the location.
	Usr any `json:"usr,omitempty"`

	// Key is the location key.
	Key string `json:"key,omitempty"`

	// Idx is the entry index. Nil for entries the library did not create.
	Idx *int `json:"idx,omitempty"`
}

// WithIndex returns a copy of the record stamped with idx.
func (s *HistoryState) WithIndex(idx int) *HistoryState {
	next := HistoryState{}
	if s != nil {
		next = *s
	}
	next.Idx = &idx
	return &next
}

// Entry is one element of a session history: the visible address plus the
// opaque record.
type Entry struct {
	URL   string        `json:"url"`
	State *HistoryState `json:"state,omitempty"`
}
