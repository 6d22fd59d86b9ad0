package domain

import "errors"

// ErrWriteQuota is returned by a backend that refuses to record a new entry
// because a platform-imposed cap was reached. Callers fall back to a full
// navigation instead of failing.
var ErrWriteQuota = errors.New("history write quota exceeded")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidDelta is returned when a relative move cannot be parsed.
var ErrInvalidDelta = errors.New("invalid history delta")

// ErrUnknownBackend is returned when configuration names a backend that does not exist.
var ErrUnknownBackend = errors.New("unknown history backend")
