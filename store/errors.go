package store

import "errors"

var (
	// ErrValidation means a required field was missing from a write.
	ErrValidation = errors.New("missing required field")
	// ErrConflict means the short code is already taken.
	ErrConflict = errors.New("short code already exists")
	// ErrNotFound means no record matches the given id or code.
	ErrNotFound = errors.New("link not found")
	// ErrUnavailable wraps transport-level failures talking to the store.
	ErrUnavailable = errors.New("store unavailable")
)
