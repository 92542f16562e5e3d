// Package ocmerr defines the error taxonomy for OCM endpoint handlers.
// Handlers return *Error values; the HTTP boundary translates them into
// status codes and JSON bodies exactly once.
package ocmerr

import "net/http"

// Error is a protocol-level failure with a fixed HTTP mapping.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// BadRequest signals an invalid or unauthorized-by-absence request (missing
// fields, malformed values, unknown share).
func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Forbidden signals failed authentication against a known share.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

// NotImplemented signals a request for a capability this instance does not
// provide (disabled federation, unsupported protocol, share or resource type).
func NotImplemented(message string) *Error {
	return &Error{Status: http.StatusNotImplemented, Message: message}
}

// Internal signals an unexpected server-side failure.
func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message}
}
