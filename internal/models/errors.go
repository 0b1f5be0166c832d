package models

import "fmt"

// ErrorKind is the stable error vocabulary exposed to API clients. Handlers
// map kinds to HTTP statuses; messages are free-form detail.
type ErrorKind string

const (
	KindValidationFailed  ErrorKind = "validation_failed"
	KindNotFound          ErrorKind = "not_found"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindInvalidState      ErrorKind = "invalid_state"
	KindForbidden         ErrorKind = "forbidden"
	KindPaymentProvider   ErrorKind = "payment_provider_error"
	KindUnexpected        ErrorKind = "unexpected"
)

// DomainError is a business-rule failure with a stable kind. Anything that is
// not a DomainError renders as an opaque internal error.
type DomainError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.cause
}

// NewDomainError creates a DomainError with a formatted message.
func NewDomainError(kind ErrorKind, format string, args ...interface{}) *DomainError {
	return &DomainError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapDomainError creates a DomainError that wraps an underlying cause.
func WrapDomainError(kind ErrorKind, cause error, format string, args ...interface{}) *DomainError {
	return &DomainError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

// ErrValidation reports malformed or out-of-range input.
func ErrValidation(format string, args ...interface{}) *DomainError {
	return NewDomainError(KindValidationFailed, format, args...)
}

// ErrNotFound reports a missing entity.
func ErrNotFound(format string, args ...interface{}) *DomainError {
	return NewDomainError(KindNotFound, format, args...)
}

// ErrInsufficientStock reports a requested quantity above available stock.
func ErrInsufficientStock(format string, args ...interface{}) *DomainError {
	return NewDomainError(KindInsufficientStock, format, args...)
}

// ErrInvalidState reports an operation invalid for the entity's current
// state, such as checking out an empty cart.
func ErrInvalidState(format string, args ...interface{}) *DomainError {
	return NewDomainError(KindInvalidState, format, args...)
}

// ErrForbidden reports an authenticated caller acting outside their
// permissions.
func ErrForbidden(format string, args ...interface{}) *DomainError {
	return NewDomainError(KindForbidden, format, args...)
}
