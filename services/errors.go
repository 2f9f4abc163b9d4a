package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeBadRequest                 ErrorType = "bad_request"
	ErrorTypeInvalidJSON                ErrorType = "invalid_json"
	ErrorTypeSubstrate                  ErrorType = "substrate_error"
	ErrorTypeSubstrateContractViolation ErrorType = "substrate_contract_violation"
	ErrorTypeInternal                   ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Sentinel values for errors.Is comparisons. They are matched by type only,
// so callers should build fresh errors with the constructors below.
var (
	ErrBadRequest                 = NewDomainError(ErrorTypeBadRequest, "bad request", nil)
	ErrEmptyPayload               = NewDomainError(ErrorTypeBadRequest, `"request" key missing or empty`, nil)
	ErrInvalidJSON                = NewDomainError(ErrorTypeInvalidJSON, "reservation request is not valid JSON", nil)
	ErrSubstrate                  = NewDomainError(ErrorTypeSubstrate, "reasoning substrate call failed", nil)
	ErrSubstrateNotConfigured     = NewDomainError(ErrorTypeSubstrate, "reasoning substrate is not configured", nil)
	ErrSubstrateContractViolation = NewDomainError(ErrorTypeSubstrateContractViolation, "reasoning substrate returned a malformed verdict", nil)
	ErrInvalidDecision            = NewDomainError(ErrorTypeSubstrateContractViolation, "decision failed output validation", nil)
	ErrInternal                   = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// NewBadRequestError builds a caller error for a missing or empty payload.
func NewBadRequestError(message string) *DomainError {
	return NewDomainError(ErrorTypeBadRequest, message, nil)
}

// NewInvalidJSONError wraps a JSON syntax error from the reservation payload.
func NewInvalidJSONError(err error) *DomainError {
	return NewDomainError(ErrorTypeInvalidJSON, "reservation request is not valid JSON", err)
}

// NewSubstrateError wraps a failed, timed out or unreachable substrate call.
func NewSubstrateError(message string, err error) *DomainError {
	return NewDomainError(ErrorTypeSubstrate, message, err)
}

// NewContractViolationError reports a substrate reply that broke the output schema.
func NewContractViolationError(message string, err error) *DomainError {
	return NewDomainError(ErrorTypeSubstrateContractViolation, message, err)
}

// Error type checking helper functions

// IsBadRequestError checks if an error is a bad request error
func IsBadRequestError(err error) bool {
	return GetErrorType(err) == ErrorTypeBadRequest
}

// IsInvalidJSONError checks if an error is an invalid JSON error
func IsInvalidJSONError(err error) bool {
	return GetErrorType(err) == ErrorTypeInvalidJSON
}

// IsSubstrateError checks if an error is a substrate call failure
func IsSubstrateError(err error) bool {
	return GetErrorType(err) == ErrorTypeSubstrate
}

// IsSubstrateContractViolation checks if an error is a substrate contract violation
func IsSubstrateContractViolation(err error) bool {
	return GetErrorType(err) == ErrorTypeSubstrateContractViolation
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// UserMessage returns the caller-facing message of a domain error without the
// wrapped cause, or a generic message for anything else.
func UserMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "an unexpected error occurred"
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
