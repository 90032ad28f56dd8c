// Package errors defines the error taxonomy for the QR service.
// Every failure that can surface over HTTP carries a stable machine kind
// and a status code; handlers serialize them as {"error": "<kind>"} bodies.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable machine-readable error identifier.
type Kind string

const (
	KindBadColor         Kind = "bad_color"
	KindBadSize          Kind = "bad_size"
	KindBadFormat        Kind = "bad_format"
	KindBadStyle         Kind = "bad_style"
	KindBadEC            Kind = "bad_ec"
	KindLogoTooLarge     Kind = "logo_too_large"
	KindLogoDecodeFailed Kind = "logo_decode_failed"
	KindEmptyData        Kind = "empty_data"
	KindDataTooLong      Kind = "data_too_long"
	KindSizeTooSmall     Kind = "size_too_small"
	KindMissingField     Kind = "template_missing_field"
	KindBadTemplate      Kind = "unknown_template"
	KindBadTargetURL     Kind = "invalid_target_url"
	KindBadShortCode     Kind = "invalid_short_code"
	KindBadExpiry        Kind = "invalid_expires_at"
	KindUnauthorized     Kind = "unauthorized"
	KindNotFound         Kind = "not_found"
	KindShortCodeTaken   Kind = "short_code_taken"
	KindExpired          Kind = "expired"
	KindPayloadTooLarge  Kind = "payload_too_large"
	KindNotAQR           Kind = "not_a_qr"
	KindRateLimited      Kind = "rate_limited"
	KindInternal         Kind = "internal_error"
)

// Error is the service-wide error type. Status is the HTTP code the error
// maps to; Message is safe to return to clients (no storage internals).
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an Error with an explicit status code.
func New(status int, kind Kind, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// BadRequest builds a 400 validation error.
func BadRequest(kind Kind, message string) *Error {
	return New(http.StatusBadRequest, kind, message)
}

// Unauthorized is returned when the presented manage token is missing or wrong.
func Unauthorized() *Error {
	return New(http.StatusUnauthorized, KindUnauthorized, "missing or invalid manage token")
}

// NotFound is returned for unknown tracked QR ids and short codes.
func NotFound(what string) *Error {
	return New(http.StatusNotFound, KindNotFound, what+" not found")
}

// Conflict is returned when a custom short code is already taken.
func Conflict(message string) *Error {
	return New(http.StatusConflict, KindShortCodeTaken, message)
}

// Gone is returned when a tracked QR has expired.
func Gone() *Error {
	return New(http.StatusGone, KindExpired, "this short URL has expired")
}

// PayloadTooLarge builds a 413 error for oversized inputs.
func PayloadTooLarge(kind Kind, message string) *Error {
	return New(http.StatusRequestEntityTooLarge, kind, message)
}

// Internal wraps an unexpected failure; the underlying cause is logged by
// the caller, never serialized.
func Internal(message string) *Error {
	return New(http.StatusInternalServerError, KindInternal, message)
}

// From extracts an *Error from err, or wraps it as an internal error so
// unclassified failures never leak implementation detail.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal server error")
}
