// Package errors provides structured application errors with HTTP mapping.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unclassified error.
	CodeUnknown Code = "UNKNOWN"

	// CodeConfigurationMissing marks a required secret or setting as absent.
	CodeConfigurationMissing Code = "CONFIGURATION_MISSING"

	// CodeAuthenticationRequired marks a missing, invalid, or expired token.
	CodeAuthenticationRequired Code = "AUTHENTICATION_REQUIRED"

	// CodeValidationFailed marks malformed request input.
	CodeValidationFailed Code = "VALIDATION_FAILED"

	// CodeUpstreamFailed marks a failure calling the OAuth provider or storage.
	CodeUpstreamFailed Code = "UPSTREAM_FAILED"

	// CodeNotFound marks an absent record.
	CodeNotFound Code = "NOT_FOUND"

	// CodeConflict marks a uniqueness violation, such as a duplicate
	// sleep record for the same date.
	CodeConflict Code = "CONFLICT"
)

// HTTPStatus maps the code to an HTTP status code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeConfigurationMissing:
		return http.StatusInternalServerError
	case CodeAuthenticationRequired:
		return http.StatusUnauthorized
	case CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUpstreamFailed:
		return http.StatusBadGateway
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
