package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error with a stable, machine-readable code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes for the sync core taxonomy. Validation and conflict errors are
// raised before any external call is made; external-call errors are confined
// to the item that caused them.
const (
	CodeValidation   = "VALIDATION"
	CodeConflict     = "CONFLICT"
	CodeNotFound     = "NOT_FOUND"
	CodeExternalCall = "EXTERNAL_CALL"
	CodeInvalidState = "INVALID_STATE"
)

// NewValidationError creates a validation error naming the offending field
func NewValidationError(field, message string) *DomainError {
	if field == "" {
		return NewDomainError(CodeValidation, message)
	}
	return NewDomainError(CodeValidation, fmt.Sprintf("%s: %s", field, message))
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// NewNotFoundError creates a not-found error for the named resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewExternalCallError wraps a failed call to an external platform
func NewExternalCallError(message string) *DomainError {
	return NewDomainError(CodeExternalCall, message)
}

// NewInvalidStateError creates an error for an operation not allowed in the current state
func NewInvalidStateError(message string) *DomainError {
	return NewDomainError(CodeInvalidState, message)
}

// hasCode reports whether err is a DomainError carrying the given code
func hasCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsConflict reports whether err is a conflict error
func IsConflict(err error) bool { return hasCode(err, CodeConflict) }

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsExternalCall reports whether err is an external-call error
func IsExternalCall(err error) bool { return hasCode(err, CodeExternalCall) }

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeConflict, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)
