package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindSurvivesWrapping(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewUnavailable("nominatim unreachable", cause)

	wrapped := fmt.Errorf("geocode %q: %w", "Paris", err)

	assert.Equal(t, KindUnavailable, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, err)
	assert.ErrorContains(t, wrapped, "socket closed")
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain failure")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestTransient(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "timed out", err: NewTimedOut(nil), want: true},
		{name: "unavailable", err: NewUnavailable("down", nil), want: true},
		{name: "rate limited", err: NewRateLimited("slow down"), want: true},
		{name: "authentication failure", err: NewAuthenticationFailure("bad key"), want: false},
		{name: "insufficient privileges", err: NewInsufficientPrivileges("denied"), want: false},
		{name: "query", err: NewQueryError("empty query"), want: false},
		{name: "quota exceeded", err: NewQuotaExceeded("plan exhausted"), want: false},
		{name: "parse", err: NewParseError(errors.New("bad json")), want: false},
		{name: "not found", err: NewNotFound("nowhere"), want: false},
		{name: "configuration", err: NewConfigurationError("missing user agent"), want: false},
		{name: "unclassified fails closed", err: errors.New("who knows"), want: false},
		{name: "nil", err: nil, want: false},
		{name: "wrapped transient", err: fmt.Errorf("call: %w", NewTimedOut(nil)), want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Transient(tc.err))
		})
	}
}

func TestFromHTTPStatus(t *testing.T) {
	testCases := []struct {
		code int
		want Kind
	}{
		{code: http.StatusTooManyRequests, want: KindRateLimited},
		{code: http.StatusUnauthorized, want: KindAuthenticationFailure},
		{code: http.StatusForbidden, want: KindInsufficientPrivileges},
		{code: http.StatusPaymentRequired, want: KindQuotaExceeded},
		{code: http.StatusBadRequest, want: KindQuery},
		{code: http.StatusNotFound, want: KindNotFound},
		{code: http.StatusInternalServerError, want: KindUnavailable},
		{code: http.StatusBadGateway, want: KindUnavailable},
		{code: http.StatusServiceUnavailable, want: KindUnavailable},
		{code: http.StatusGatewayTimeout, want: KindUnavailable},
		{code: http.StatusTeapot, want: KindUnknown},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("status %d", tc.code), func(t *testing.T) {
			err := FromHTTPStatus(tc.code)
			require.NotNil(t, err)
			assert.Equal(t, tc.want, err.Kind)
		})
	}
}

func TestFromTransportError(t *testing.T) {
	timeoutErr := &url.Error{Op: "Get", URL: "https://example.test", Err: context.DeadlineExceeded}
	assert.Equal(t, KindTimedOut, FromTransportError(timeoutErr).Kind)

	connErr := &url.Error{Op: "Get", URL: "https://example.test", Err: errors.New("connection refused")}
	assert.Equal(t, KindUnavailable, FromTransportError(connErr).Kind)

	assert.Nil(t, FromTransportError(nil))
}
