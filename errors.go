package goslink

import "errors"

// Sentinel errors returned by the client's public operations, usually
// wrapped with fmt.Errorf's %w to add context. Callers should match them
// with errors.Is rather than comparing strings.
var (
	ErrNoServerAddress    = errors.New("No server address configured")
	ErrUniMultiConflict   = errors.New("Uni-station and multi-station subscriptions cannot coexist")
	ErrSequenceOutOfRange = errors.New("Sequence number out of range")
	ErrInvalidTimestamp   = errors.New("Invalid timestamp")
	ErrProtocolViolation  = errors.New("Protocol violation, buffer presumed corrupt")
	ErrNegotiationFailed  = errors.New("Negotiation with server failed")
	ErrTerminated         = errors.New("Session already terminated")
	ErrInfoInFlight       = errors.New("An INFO request is already in flight")
)
