package geocode

import (
	"errors"
	"fmt"
)

// Kind identifies the failure class of a geocoding error. Retry decisions are
// made on the kind alone, never on message text.
type Kind int

const (
	// KindUnknown covers errors that could not be classified.
	KindUnknown Kind = iota
	// KindConfiguration marks invalid client setup (credentials, options).
	KindConfiguration
	// KindQuery marks malformed request parameters.
	KindQuery
	// KindQuotaExceeded marks an exhausted account or plan quota.
	KindQuotaExceeded
	// KindRateLimited marks a remote request to slow down.
	KindRateLimited
	// KindAuthenticationFailure marks rejected credentials.
	KindAuthenticationFailure
	// KindInsufficientPrivileges marks credentials lacking permission.
	KindInsufficientPrivileges
	// KindTimedOut marks a request that exceeded its deadline.
	KindTimedOut
	// KindUnavailable marks an unreachable or erroring remote service.
	KindUnavailable
	// KindParse marks an unparseable response body.
	KindParse
	// KindNotFound marks a query with no result.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindQuery:
		return "query"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindRateLimited:
		return "rate_limited"
	case KindAuthenticationFailure:
		return "authentication_failure"
	case KindInsufficientPrivileges:
		return "insufficient_privileges"
	case KindTimedOut:
		return "timed_out"
	case KindUnavailable:
		return "unavailable"
	case KindParse:
		return "parse"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the typed error every provider adapter raises. The kind survives
// wrapping so callers always see the original failure class.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// KindOf extracts the failure kind from err, or KindUnknown when err carries
// no geocoding classification.
func KindOf(err error) Kind {
	var geoErr *Error
	if errors.As(err, &geoErr) && geoErr != nil {
		return geoErr.Kind
	}

	return KindUnknown
}

// NewConfigurationError reports invalid client setup detected before any call.
func NewConfigurationError(msg string) *Error {
	return &Error{Kind: KindConfiguration, Message: msg}
}

// NewQueryError reports malformed request parameters.
func NewQueryError(msg string) *Error {
	return &Error{Kind: KindQuery, Message: msg}
}

// NewQuotaExceeded reports an exhausted account or plan quota.
func NewQuotaExceeded(msg string) *Error {
	return &Error{Kind: KindQuotaExceeded, Message: msg}
}

// NewRateLimited reports that the remote asked the caller to slow down.
func NewRateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg}
}

// NewAuthenticationFailure reports rejected credentials.
func NewAuthenticationFailure(msg string) *Error {
	return &Error{Kind: KindAuthenticationFailure, Message: msg}
}

// NewInsufficientPrivileges reports credentials lacking permission.
func NewInsufficientPrivileges(msg string) *Error {
	return &Error{Kind: KindInsufficientPrivileges, Message: msg}
}

// NewTimedOut reports a request that exceeded its deadline.
func NewTimedOut(cause error) *Error {
	return &Error{Kind: KindTimedOut, Message: "geocoding request timed out", cause: cause}
}

// NewUnavailable reports an unreachable or erroring remote service.
func NewUnavailable(msg string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, cause: cause}
}

// NewParseError reports an unparseable response body.
func NewParseError(cause error) *Error {
	return &Error{Kind: KindParse, Message: "decoding geocoding response", cause: cause}
}

// NewNotFound reports a query that produced no result.
func NewNotFound(query string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("no result found for %q", query)}
}
