// Package handlers defines the HTTP-layer error codes used across all API
// endpoints.
//
// This file holds the status-derived half of the error taxonomy. Codes are
// uppercase snake_case and mirror common HTTP status semantics; the
// domain-specific half (BOOK_OUT_OF_STOCK, HIGHLIGHTED_BOOK_CANNOT_BE_DELETED,
// and friends) lives with the business errors in the services package, since
// those are raised below the transport layer and carry their own status.
//
// Clients are expected to branch on these codes for programmatic error
// handling rather than parsing messages.
package handlers

import "net/http"

const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeInternal         = "INTERNAL_SERVER_ERROR"
	ErrCodeUnknown          = "UNKNOWN_ERROR"
)

// ErrorCodeForStatus maps an HTTP status code to its semantic error code.
// Statuses outside the known set map to UNKNOWN_ERROR.
func ErrorCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeBadRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusMethodNotAllowed:
		return ErrCodeMethodNotAllowed
	case http.StatusTooManyRequests:
		return ErrCodeTooManyRequests
	case http.StatusInternalServerError:
		return ErrCodeInternal
	default:
		return ErrCodeUnknown
	}
}
