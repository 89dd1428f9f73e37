package hub

import "errors"

// Sentinel errors for hub operations.
// Callers should use errors.Is() to check error types since errors
// may be wrapped with additional context.
var (
	// ErrHubUnreachable indicates the hub could not be reached over the
	// network (connection refused, timeout, DNS failure).
	ErrHubUnreachable = errors.New("hub: unreachable")

	// ErrAuthRejected indicates the hub rejected the access token.
	// The token must be re-generated by pressing the hub's action button
	// during pairing; this is not a transient condition.
	ErrAuthRejected = errors.New("hub: authentication rejected")

	// ErrDeviceNotFound indicates the requested device ID is not known to
	// the hub. Seen when a device is removed between an event arriving and
	// the follow-up state fetch.
	ErrDeviceNotFound = errors.New("hub: device not found")

	// ErrBadResponse indicates the hub answered with an unexpected status
	// code or a body that could not be decoded.
	ErrBadResponse = errors.New("hub: unexpected response")
)
