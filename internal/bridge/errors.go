package bridge

import "errors"

// Sentinel errors for bridge operations.
// Callers should use errors.Is() to check error types since errors
// may be wrapped with additional context.
var (
	// ErrMissingIdentity indicates a raw device record carried no device
	// ID. Such records cannot be deduplicated or routed to a topic and are
	// skipped with a warning rather than published.
	ErrMissingIdentity = errors.New("bridge: device record missing identity")
)
