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

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeJurisdictionInvalid is used when a zone/division/circle selection
	// breaks the hierarchy or no commission rate covers it
	ErrCodeJurisdictionInvalid = "ERR_JURISDICTION_INVALID"
	// ErrCodeNotRegistered is used when an operation needs a registered
	// retailer or branch that has no remote identifier yet
	ErrCodeNotRegistered = "ERR_NOT_REGISTERED"
	// ErrCodeReturnExceedsInvoice is used when a return would exceed the
	// invoiced amount
	ErrCodeReturnExceedsInvoice = "ERR_RETURN_EXCEEDS_INVOICE"
)

// Vendor configuration error codes
const (
	// ErrCodeConfigMissing is used when no usable vendor configuration exists
	ErrCodeConfigMissing = "ERR_CONFIG_MISSING"
	// ErrCodeConfigIncomplete is used when the stored configuration lacks a
	// required credential
	ErrCodeConfigIncomplete = "ERR_CONFIG_INCOMPLETE"
)

// Authority error codes
const (
	// ErrCodeAuthorityUnavailable is used when the authority cannot be reached
	ErrCodeAuthorityUnavailable = "ERR_AUTHORITY_UNAVAILABLE"
	// ErrCodeAuthorityRejected is used when the authority rejected a request
	ErrCodeAuthorityRejected = "ERR_AUTHORITY_REJECTED"
	// ErrCodeAuthorityResponse is used when the authority answered with an
	// unparseable payload
	ErrCodeAuthorityResponse = "ERR_AUTHORITY_RESPONSE"
	// ErrCodeAuthorityAuth is used when authentication against the authority
	// failed
	ErrCodeAuthorityAuth = "ERR_AUTHORITY_AUTH"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:         http.StatusUnprocessableEntity,
	ErrCodeJurisdictionInvalid:  http.StatusUnprocessableEntity,
	ErrCodeNotRegistered:        http.StatusUnprocessableEntity,
	ErrCodeReturnExceedsInvoice: http.StatusUnprocessableEntity,

	// Vendor configuration errors -> 422 Unprocessable Entity
	ErrCodeConfigMissing:    http.StatusUnprocessableEntity,
	ErrCodeConfigIncomplete: http.StatusUnprocessableEntity,

	// Authority errors -> 502 Bad Gateway
	ErrCodeAuthorityUnavailable: http.StatusBadGateway,
	ErrCodeAuthorityRejected:    http.StatusBadGateway,
	ErrCodeAuthorityResponse:    http.StatusBadGateway,
	ErrCodeAuthorityAuth:        http.StatusBadGateway,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps old error codes to new standardized codes
// This is for backward compatibility with existing domain errors
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"ALREADY_EXISTS":   ErrCodeAlreadyExists,
	"INVALID_INPUT":    ErrCodeInvalidInput,
	"INVALID_STATE":    ErrCodeInvalidState,
	"VALIDATION_ERROR": ErrCodeValidation,
	"BAD_REQUEST":      ErrCodeBadRequest,
	"INTERNAL_ERROR":   ErrCodeInternal,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
