package dto

import "net/http"

// Error code constants, format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Input and resource error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
)

// Business rule error codes
const (
	// ErrCodeBusinessRule is used for bundle and catalog rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when this service throttles the caller
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Upstream platform error codes
const (
	// ErrCodeUpstream is used when a request to the commerce platform fails
	ErrCodeUpstream = "ERR_UPSTREAM"
	// ErrCodeUpstreamRateLimited is used when the commerce platform throttles us
	ErrCodeUpstreamRateLimited = "ERR_UPSTREAM_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation and input errors -> 400 Bad Request
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound: http.StatusNotFound,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,

	// Upstream platform errors -> 502 Bad Gateway. A throttled platform
	// call keeps its own code so callers can tell it apart, but it is
	// still an upstream failure, not a limit the caller tripped.
	ErrCodeUpstream:            http.StatusBadGateway,
	ErrCodeUpstreamRateLimited: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":     ErrCodeNotFound,
	"INVALID_INPUT": ErrCodeInvalidInput,
	"UNAUTHORIZED":  ErrCodeUnauthorized,
	"FORBIDDEN":     ErrCodeForbidden,

	// Bundle and catalog rule violations -> 422 Unprocessable Entity
	"BUNDLE_ITEM_COUNT":           ErrCodeBusinessRule,
	"BUNDLE_INVALID_QUANTITY":     ErrCodeBusinessRule,
	"BUNDLE_NO_SELECTION":         ErrCodeBusinessRule,
	"CATALOG_UNKNOWN_PRODUCT":     ErrCodeBusinessRule,
	"CATALOG_UNKNOWN_COMBINATION": ErrCodeBusinessRule,
	"VARIANT_NOT_FOUND":           ErrCodeBusinessRule,
	"CHECK_LOG_DISABLED":          ErrCodeBusinessRule,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
