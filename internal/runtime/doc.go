// Package runtime implements the history transition engine: the current
// location, the blocking handshake, and reconciliation of moves the backend
// applied on its own.
package runtime
