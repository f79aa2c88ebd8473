package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/geogate/internal/clientlimit"
	"github.com/Proton-105/geogate/internal/health"
	"github.com/Proton-105/geogate/pkg/config"
	"github.com/Proton-105/geogate/pkg/geocode"
)

type stubService struct {
	geocode func(ctx context.Context, query string) (*geocode.Location, error)
	reverse func(ctx context.Context, lat, lon float64) (*geocode.Location, error)
}

func (s *stubService) Geocode(ctx context.Context, query string) (*geocode.Location, error) {
	return s.geocode(ctx, query)
}

func (s *stubService) Reverse(ctx context.Context, lat, lon float64) (*geocode.Location, error) {
	return s.reverse(ctx, lat, lon)
}

func testHandler(t *testing.T, svc GeocodeService, cfg config.ServerConfig) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(svc, health.NewChecker(log), log)
	return srv.Handler(cfg, clientlimit.NewMemoryLimiter())
}

func TestGeocodeEndpoint(t *testing.T) {
	svc := &stubService{
		geocode: func(ctx context.Context, query string) (*geocode.Location, error) {
			return &geocode.Location{Address: "Paris, France", Latitude: 48.85, Longitude: 2.35, Provider: "nominatim"}, nil
		},
	}
	handler := testHandler(t, svc, config.ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/geocode?q=paris", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body locationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Paris, France", body.Address)
	assert.Equal(t, 48.85, body.Latitude)
	assert.Equal(t, "nominatim", body.Provider)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGeocodeMissingQuery(t *testing.T) {
	handler := testHandler(t, &stubService{}, config.ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/geocode", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReverseEndpoint(t *testing.T) {
	svc := &stubService{
		reverse: func(ctx context.Context, lat, lon float64) (*geocode.Location, error) {
			return &geocode.Location{Address: "somewhere", Latitude: lat, Longitude: lon}, nil
		},
	}
	handler := testHandler(t, svc, config.ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reverse?lat=48.85&lon=2.35", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body locationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 48.85, body.Latitude)
}

func TestReverseRejectsBadCoordinates(t *testing.T) {
	handler := testHandler(t, &stubService{}, config.ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reverse?lat=abc&lon=2.35", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorKindsMapToStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", geocode.NewNotFound("nowhere"), http.StatusNotFound},
		{"rate limited", geocode.NewRateLimited("slow down"), http.StatusTooManyRequests},
		{"timed out", geocode.NewTimedOut(nil), http.StatusGatewayTimeout},
		{"auth failure", geocode.NewAuthenticationFailure("bad key"), http.StatusBadGateway},
		{"unavailable", geocode.NewUnavailable("down", nil), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				geocode: func(ctx context.Context, query string) (*geocode.Location, error) {
					return nil, tt.err
				},
			}
			handler := testHandler(t, svc, config.ServerConfig{})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/geocode?q=x", nil))

			assert.Equal(t, tt.want, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, geocode.KindOf(tt.err).String(), body.Kind)
		})
	}
}

func TestSwallowedLookupReturnsNotFound(t *testing.T) {
	svc := &stubService{
		geocode: func(ctx context.Context, query string) (*geocode.Location, error) {
			return nil, nil
		},
	}
	handler := testHandler(t, svc, config.ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/geocode?q=x", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthzEndpoint(t *testing.T) {
	handler := testHandler(t, &stubService{}, config.ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	handler := testHandler(t, &stubService{}, config.ServerConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientRateLimiting(t *testing.T) {
	svc := &stubService{
		geocode: func(ctx context.Context, query string) (*geocode.Location, error) {
			return &geocode.Location{Address: query}, nil
		},
	}
	handler := testHandler(t, svc, config.ServerConfig{
		ClientRateLimit:  2,
		ClientRateWindow: time.Minute,
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/geocode?q=x", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/geocode?q=x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
