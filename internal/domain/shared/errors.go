package shared

import "errors"

// Error kind codes surfaced by the storefront.
const (
	CodeConfig     = "CONFIG_ERROR"
	CodeFetch      = "FETCH_ERROR"
	CodeParse      = "PARSE_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeSubmission = "SUBMISSION_ERROR"
	CodeNotFound   = "NOT_FOUND"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps err as its cause
func WrapDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   err,
	}
}

// NewConfigError reports a missing or placeholder endpoint.
func NewConfigError(message string) *DomainError {
	return NewDomainError(CodeConfig, message)
}

// NewFetchError reports a failed catalog retrieval.
func NewFetchError(message string, err error) *DomainError {
	return WrapDomainError(CodeFetch, message, err)
}

// NewParseError reports a malformed catalog document.
func NewParseError(message string) *DomainError {
	return NewDomainError(CodeParse, message)
}

// NewValidationError reports unmet submission preconditions.
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewSubmissionError reports a failed or rejected order submission.
func NewSubmissionError(message string, err error) *DomainError {
	return WrapDomainError(CodeSubmission, message, err)
}

// KindOf returns the code of the first DomainError in err's chain, or "".
func KindOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsKind reports whether err carries a DomainError with the given code.
func IsKind(err error, code string) bool {
	return err != nil && KindOf(err) == code
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
)
