package tracker

import "errors"

var (
	// ErrPeerNotFound is returned when an operation references an unknown peer ID.
	ErrPeerNotFound = errors.New("peer not found")
	// ErrJobNotFound is returned when an operation references an unknown job ID.
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidInput wraps validation failures: out-of-range values,
	// unregistered requesters, and disallowed status transitions.
	ErrInvalidInput = errors.New("invalid input")
)
