package rangelock

import "errors"

// Errors returned by locks.
var (
	// ErrLockConsumed indicates a second Apply or Release on the same lock.
	// It is always a lifecycle bug in the caller.
	ErrLockConsumed = errors.New("range lock already consumed")

	// ErrUnchanged is returned by a mutator passed to Apply when it decided
	// not to touch the document. Apply then behaves like Release.
	ErrUnchanged = errors.New("document unchanged")
)
