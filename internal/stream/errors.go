package stream

import (
	"errors"
	"fmt"
)

// Errors
var (
	// ErrMaxRetries is returned when a session has exhausted its reconnect
	// budget. It is terminal for that session; only a full rebuild via
	// Mux.Run recovers from it.
	ErrMaxRetries = errors.New("max retries exceeded")

	// ErrInvalidTopic is returned by Subscribe for a topic name that is
	// neither a known trading topic nor carries a known data prefix.
	ErrInvalidTopic = errors.New("unknown topic")

	// ErrNilHandler is returned by Register when no handler is supplied.
	ErrNilHandler = errors.New("handler must not be nil")

	// ErrSessionClosed is returned when an operation races an explicit Close.
	ErrSessionClosed = errors.New("session closed")
)

// AuthError is a credential rejection during the authenticate handshake.
// It is fatal and never retried.
type AuthError struct {
	Endpoint string
	Status   string // venue-reported status, when present
	Reason   string // venue-reported error string, when present
}

func (e *AuthError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("authentication failed at %s: %s", e.Endpoint, e.Reason)
	}
	return fmt.Sprintf("authentication failed at %s: status %q", e.Endpoint, e.Status)
}
