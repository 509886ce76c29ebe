package document

import "errors"

// Errors returned by document operations.
var (
	// ErrInvalidRange indicates a range that is not bound to a live document
	// or whose boundary points no longer exist in it.
	ErrInvalidRange = errors.New("invalid range")

	// ErrClosed indicates the document has been closed.
	ErrClosed = errors.New("document is closed")

	// ErrDetached indicates a node is not part of the document tree.
	ErrDetached = errors.New("node is not attached to the document")

	// ErrForeignRange indicates a range captured from another document.
	ErrForeignRange = errors.New("range belongs to another document")

	// ErrNodeInUse indicates a node passed for insertion already has a parent.
	ErrNodeInUse = errors.New("node already has a parent")

	// ErrMalformedMarkers indicates unbalanced selection markers in parsed input.
	ErrMalformedMarkers = errors.New("malformed selection markers")
)
