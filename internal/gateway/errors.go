package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means there is no live token, or the server
	// rejected the one we sent. Callers should prompt for a re-login.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound is returned for empty list/detail lookups on
	// assignments and users. Submission and feedback lookups never
	// return it; absence is not an error for those.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable means the server could not be reached at all.
	ErrUnavailable = errors.New("server unavailable")
)

// ServerError carries a non-2xx response that is not covered by one of the
// sentinel errors above, preserving the server-provided message when the
// body contained one.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error %d", e.Status)
}
