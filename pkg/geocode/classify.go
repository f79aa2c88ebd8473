package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Transient reports whether err is expected to succeed if retried later.
// Only timeouts, remote throttling and service unavailability qualify;
// unclassified errors are never retried.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	switch KindOf(err) {
	case KindTimedOut, KindUnavailable, KindRateLimited:
		return true
	default:
		return false
	}
}

// FromHTTPStatus maps a non-OK HTTP status onto the error taxonomy. Provider
// adapters use it for responses that fail before the body is interpreted.
func FromHTTPStatus(code int) *Error {
	switch code {
	case http.StatusTooManyRequests:
		return NewRateLimited("remote replied 429, slow down")
	case http.StatusUnauthorized:
		return NewAuthenticationFailure("credentials rejected (401)")
	case http.StatusForbidden:
		return NewInsufficientPrivileges("access denied (403)")
	case http.StatusPaymentRequired:
		return NewQuotaExceeded("quota exhausted (402)")
	case http.StatusBadRequest:
		return NewQueryError("remote rejected request parameters (400)")
	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, Message: "remote replied 404"}
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return NewUnavailable(fmt.Sprintf("remote service unavailable (%d)", code), nil)
	default:
		return &Error{Kind: KindUnknown, Message: fmt.Sprintf("unexpected HTTP status %d", code)}
	}
}

// FromTransportError maps a client-side transport failure onto the taxonomy.
// Deadline and timeout failures are transient; everything else counts as the
// service being unreachable.
func FromTransportError(err error) *Error {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return NewTimedOut(err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimedOut(err)
	}

	return NewUnavailable("geocoding service unreachable", err)
}
