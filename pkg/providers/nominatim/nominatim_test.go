package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/geogate/pkg/geocode"
)

// testGeocoder points the adapter at srv instead of the public instance.
func testGeocoder(t *testing.T, srv *httptest.Server) *Geocoder {
	t.Helper()

	g, err := New(Config{
		UserAgent:  "geogate-tests",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	g.geocodeURL = "http://" + base.Host + "/search"
	g.reverseURL = "http://" + base.Host + "/reverse"

	return g
}

func TestNewRequiresUserAgent(t *testing.T) {
	_, err := New(Config{})

	assert.Equal(t, geocode.KindConfiguration, geocode.KindOf(err))
}

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "geogate-tests", r.Header.Get("User-Agent"))
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))

		_, _ = w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522","display_name":"Paris, France"}]`))
	}))
	defer srv.Close()

	loc, err := testGeocoder(t, srv).Geocode(context.Background(), "Paris")

	require.NoError(t, err)
	assert.InDelta(t, 48.8566, loc.Latitude, 1e-9)
	assert.InDelta(t, 2.3522, loc.Longitude, 1e-9)
	assert.Equal(t, "Paris, France", loc.Address)
	assert.Equal(t, "nominatim", loc.Provider)
}

func TestGeocodeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := testGeocoder(t, srv).Geocode(context.Background(), "nowhere at all")

	assert.Equal(t, geocode.KindNotFound, geocode.KindOf(err))
}

func TestGeocodeEmptyQuery(t *testing.T) {
	g, err := New(Config{UserAgent: "geogate-tests"})
	require.NoError(t, err)

	_, err = g.Geocode(context.Background(), "")

	assert.Equal(t, geocode.KindQuery, geocode.KindOf(err))
}

func TestReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)

		_, _ = w.Write([]byte(`{"lat":"48.8566","lon":"2.3522","display_name":"Paris, France"}`))
	}))
	defer srv.Close()

	loc, err := testGeocoder(t, srv).Reverse(context.Background(), 48.8566, 2.3522)

	require.NoError(t, err)
	assert.Equal(t, "Paris, France", loc.Address)
}

func TestReverseNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	_, err := testGeocoder(t, srv).Reverse(context.Background(), 0, 0)

	assert.Equal(t, geocode.KindNotFound, geocode.KindOf(err))
}

func TestHTTPStatusMapping(t *testing.T) {
	testCases := []struct {
		status int
		want   geocode.Kind
	}{
		{status: http.StatusTooManyRequests, want: geocode.KindRateLimited},
		{status: http.StatusServiceUnavailable, want: geocode.KindUnavailable},
		{status: http.StatusForbidden, want: geocode.KindInsufficientPrivileges},
	}

	for _, tc := range testCases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		_, err := testGeocoder(t, srv).Geocode(context.Background(), "Paris")
		assert.Equal(t, tc.want, geocode.KindOf(err), "status %d", tc.status)

		srv.Close()
	}
}

func TestGarbageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	_, err := testGeocoder(t, srv).Geocode(context.Background(), "Paris")

	assert.Equal(t, geocode.KindParse, geocode.KindOf(err))
}
