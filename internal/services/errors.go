package services

// ValidationError rejects a submit before any network I/O is attempted.
// Match a category with errors.As, or a specific rejection with errors.Is
// against the sentinels below.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

var (
	ErrNoVideo        = &ValidationError{Reason: "no video selected"}
	ErrNoAssignment   = &ValidationError{Reason: "no assignment selected"}
	ErrWindowClosed   = &ValidationError{Reason: "submission window closed"}
	ErrEmptyUsername  = &ValidationError{Reason: "username must not be empty"}
	ErrEmptyPassword  = &ValidationError{Reason: "password must not be empty"}
)
