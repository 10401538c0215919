package api

import "errors"

var (
	// ErrUnavailable marks transport-level failures: the server could not be
	// reached at all. Callers treat it as "still offline" and retry on the
	// next reconnect.
	ErrUnavailable = errors.New("server unavailable")

	// ErrNotFound is returned for 404 responses. Deleting an already-deleted
	// record maps here and is treated as success by callers.
	ErrNotFound = errors.New("resource not found")

	// ErrRemote marks any other non-2xx response: the server answered and
	// rejected the request.
	ErrRemote = errors.New("remote error")
)
