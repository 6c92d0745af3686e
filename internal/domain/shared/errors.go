package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a business error so callers can map it to the right
// HTTP status and retry behavior without string matching.
type ErrorKind string

const (
	// ErrorKindConfig marks missing or inconsistent tenant configuration
	// (integration credentials, transit account, journal account). Fatal to
	// the triggering call, never retried automatically.
	ErrorKindConfig ErrorKind = "CONFIG"

	// ErrorKindValidation marks input rejected before any network call
	// (missing correlation id, missing PIX key, amount over selection).
	ErrorKindValidation ErrorKind = "VALIDATION"

	// ErrorKindConflict marks an idempotency conflict that could not be
	// recovered by looking up the original exchange record.
	ErrorKindConflict ErrorKind = "CONFLICT"

	// ErrorKindTransport marks HTTP or network failures talking to the bank.
	ErrorKindTransport ErrorKind = "TRANSPORT"

	// ErrorKindInternal marks unexpected failures wrapped on their way out.
	ErrorKindInternal ErrorKind = "INTERNAL"
)

// BusinessError is the tagged error type used across the PIX lifecycle.
// Business errors pass through service boundaries unchanged; everything
// else gets wrapped exactly once with ErrorKindInternal.
type BusinessError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *BusinessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a configuration error
func NewConfigError(format string, args ...interface{}) *BusinessError {
	return &BusinessError{Kind: ErrorKindConfig, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError creates a validation error
func NewValidationError(format string, args ...interface{}) *BusinessError {
	return &BusinessError{Kind: ErrorKindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError creates an idempotency-conflict error
func NewConflictError(format string, args ...interface{}) *BusinessError {
	return &BusinessError{Kind: ErrorKindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewTransportError creates a transport error wrapping the underlying cause
func NewTransportError(cause error, format string, args ...interface{}) *BusinessError {
	return &BusinessError{Kind: ErrorKindTransport, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WrapInternal wraps err with ErrorKindInternal unless it already is a
// BusinessError, in which case it is returned unchanged. This keeps the
// taxonomy flat: business errors are never double-wrapped.
func WrapInternal(err error, message string) error {
	if err == nil {
		return nil
	}
	var bizErr *BusinessError
	if errors.As(err, &bizErr) {
		return err
	}
	return &BusinessError{Kind: ErrorKindInternal, Message: message, Cause: err}
}

// KindOf returns the error kind of err, or ErrorKindInternal for plain errors
func KindOf(err error) ErrorKind {
	var bizErr *BusinessError
	if errors.As(err, &bizErr) {
		return bizErr.Kind
	}
	return ErrorKindInternal
}

// IsKind reports whether err is a BusinessError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var bizErr *BusinessError
	return errors.As(err, &bizErr) && bizErr.Kind == kind
}
