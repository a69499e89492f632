package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Storefront error codes
const (
	// ErrCodeConfig is used when a remote endpoint is missing or a placeholder
	ErrCodeConfig = "ERR_CONFIG"
	// ErrCodeFetch is used when the catalog could not be retrieved
	ErrCodeFetch = "ERR_FETCH"
	// ErrCodeParse is used when the catalog document is malformed
	ErrCodeParse = "ERR_PARSE"
	// ErrCodeValidation is used when submission preconditions are not met
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeSubmission is used when the order handler rejected or failed the order
	ErrCodeSubmission = "ERR_SUBMISSION"
)

// Resource and input error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Endpoint not configured -> 503 Service Unavailable
	ErrCodeConfig: http.StatusServiceUnavailable,

	// Upstream failures -> 502 Bad Gateway
	ErrCodeFetch:      http.StatusBadGateway,
	ErrCodeParse:      http.StatusBadGateway,
	ErrCodeSubmission: http.StatusBadGateway,

	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the API codes
var LegacyErrorCodeMapping = map[string]string{
	"CONFIG_ERROR":     ErrCodeConfig,
	"FETCH_ERROR":      ErrCodeFetch,
	"PARSE_ERROR":      ErrCodeParse,
	"VALIDATION_ERROR": ErrCodeValidation,
	"SUBMISSION_ERROR": ErrCodeSubmission,
	"NOT_FOUND":        ErrCodeNotFound,
	"INVALID_INPUT":    ErrCodeBadRequest,
	"BAD_REQUEST":      ErrCodeBadRequest,
	"INTERNAL_ERROR":   ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
