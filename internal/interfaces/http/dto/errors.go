package dto

import (
	"errors"
	"net/http"

	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/domain/shared"
	"github.com/kvikk/backend/internal/domain/shipping"
)

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
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized     = "ERR_UNAUTHORIZED"
	ErrCodeForbidden        = "ERR_FORBIDDEN"
	ErrCodeTokenExpired     = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid     = "ERR_TOKEN_INVALID"
	ErrCodeInvalidSignature = "ERR_INVALID_SIGNATURE"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Upstream error codes
const (
	// ErrCodeCarrierUnavailable is used when the Kvikk API cannot be reached
	ErrCodeCarrierUnavailable = "ERR_CARRIER_UNAVAILABLE"
	// ErrCodePlatformFailure is used when the storefront Admin API fails
	ErrCodePlatformFailure = "ERR_PLATFORM_FAILURE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenInvalid:     http.StatusUnauthorized,
	ErrCodeInvalidSignature: http.StatusUnauthorized,

	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeCarrierUnavailable: http.StatusBadGateway,
	ErrCodePlatformFailure:    http.StatusBadGateway,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps shared.DomainError codes to API codes
var DomainErrorCodeMapping = map[string]string{
	"SETTINGS_NOT_FOUND": ErrCodeNotFound,
	"NOT_FOUND":          ErrCodeNotFound,
	"INVALID_INPUT":      ErrCodeInvalidInput,
	"VALIDATION_ERROR":   ErrCodeValidation,
	"UNAUTHORIZED":       ErrCodeUnauthorized,
	"INTERNAL_ERROR":     ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

// sentinelCodes maps domain sentinel errors to API codes. Order matters:
// the first match wins.
var sentinelCodes = []struct {
	err  error
	code string
}{
	{settings.ErrInvalidShopDomain, ErrCodeInvalidInput},
	{settings.ErrInvalidDefaultService, ErrCodeValidationFormat},
	{settings.ErrInvalidCountryCode, ErrCodeValidationFormat},
	{shipping.ErrOrderInvalidPayload, ErrCodeInvalidJSON},
	{shipping.ErrShipmentAlreadyCreated, ErrCodeConflict},
	{shipping.ErrShipmentRecordNotFound, ErrCodeNotFound},
	{shipping.ErrCarrierAuthFailed, ErrCodeUnauthorized},
	{shipping.ErrCarrierUnavailable, ErrCodeCarrierUnavailable},
	{shipping.ErrCarrierRequestFailed, ErrCodeCarrierUnavailable},
	{shipping.ErrPlatformRequestFailed, ErrCodePlatformFailure},
	{shipping.ErrPlatformNotInstalled, ErrCodePlatformFailure},
}

// CodeForError derives the API error code for err.
func CodeForError(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return NormalizeErrorCode(domainErr.Code)
	}
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return ErrCodeInternal
}
