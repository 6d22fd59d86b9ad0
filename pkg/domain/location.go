package domain

import (
	"reflect"

	"github.com/google/uuid"
)

// Path is the address part of a location.
// When used as a navigation target, an empty field means "not given".
type Path struct {
	// Pathname is the path component, starting with "/" once resolved.
	Pathname string `json:"pathname" yaml:"pathname"`

	// Search is the query component including the leading "?", or empty.
	Search string `json:"search,omitempty" yaml:"search,omitempty"`

	// Hash is the fragment component including the leading "#", or empty.
	Hash string `json:"hash,omitempty" yaml:"hash,omitempty"`
}

// String joins the components into a single address.
// A missing pathname is rendered as "/".
func (p Path) String() string {
	pathname := p.Pathname
	if pathname == "" {
		pathname = DefaultPathname
	}
	return pathname + p.Search + p.Hash
}

// Location is an immutable description of a navigable position.
// Locations are passed by value; nothing in this module mutates one after
// construction.
type Location struct {
	Path

	// State is opaque user data attached to this entry. May be nil.
	State any `json:"state"`

	// Key identifies this entry. Two locations with the same path and state
	// are still distinct entries when their keys differ.
	Key string `json:"key"`
}

// NewLocation builds a location with a freshly generated key.
func NewLocation(p Path, state any) Location {
	return Location{Path: p, State: state, Key: NewKey()}
}

// SameAddress reports whether both locations point at the same address and
// carry equal state. Keys are ignored.
func (l Location) SameAddress(other Location) bool {
	return l.Path.String() == other.Path.String() && reflect.DeepEqual(l.State, other.State)
}

// NewKey returns a new unique location key.
func NewKey() string {
	return uuid.NewString()
}
