package core

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable marks network or storage failures. Adapters wrap the
// underlying error so callers can match it with errors.Is.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Unavailable wraps err so it matches ErrBackendUnavailable while keeping the
// original cause in the chain.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
}

// ValidationError rejects bad input before any I/O happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PartialFailure reports a batch operation that stopped partway through.
// Succeeded holds the ids confirmed applied, Remaining the ids to retry.
type PartialFailure struct {
	Succeeded []string
	Remaining []string
	Err       error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("batch partially applied: %d succeeded, %d remaining: %v",
		len(e.Succeeded), len(e.Remaining), e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }

// ExternalServiceError marks failures of optional outside services (the
// generative API). It never affects the synchronization channel's state.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
