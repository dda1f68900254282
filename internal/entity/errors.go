package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the ticketing API key is absent.
	ErrNotConfigured = errors.New("humanitix API key is not configured")

	// ErrMissingArgument means the message did not match an extraction pattern.
	ErrMissingArgument = errors.New("missing argument")

	// ErrInvalidCapacity means the extracted capacity is not a non-negative integer.
	ErrInvalidCapacity = errors.New("capacity must be a non-negative integer")

	ErrDuplicateMessage = errors.New("message already handled")
)

// NoMatchError is returned when no event name clears the similarity cutoff.
type NoMatchError struct {
	Query string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no event found matching '%s'", e.Query)
}

// RemoteError wraps a failed call to the ticketing platform.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
