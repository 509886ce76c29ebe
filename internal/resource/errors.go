package resource

import "errors"

// Errors returned by the resolver.
var (
	// ErrUnsupportedScheme indicates a target reference the resolver cannot fetch.
	ErrUnsupportedScheme = errors.New("unsupported scheme")

	// ErrNotImage indicates the fetched content is not a known image format.
	ErrNotImage = errors.New("content is not an image")

	// ErrBadStatus indicates a non-success HTTP response.
	ErrBadStatus = errors.New("unexpected HTTP status")

	// ErrMalformedData indicates a data: URI that cannot be decoded.
	ErrMalformedData = errors.New("malformed data URI")
)
