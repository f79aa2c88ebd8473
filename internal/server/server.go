// Package server exposes the geocoding client over an HTTP API.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/geogate/internal/clientlimit"
	"github.com/Proton-105/geogate/internal/health"
	"github.com/Proton-105/geogate/pkg/config"
	"github.com/Proton-105/geogate/pkg/geocode"
	"github.com/Proton-105/geogate/pkg/graceful"
	"github.com/Proton-105/geogate/pkg/logger"
)

// GeocodeService is the part of the geocoding client the API exposes.
type GeocodeService interface {
	Geocode(ctx context.Context, query string) (*geocode.Location, error)
	Reverse(ctx context.Context, lat, lon float64) (*geocode.Location, error)
}

// Server routes HTTP requests to the geocoding client.
type Server struct {
	client  GeocodeService
	checker *health.Checker
	log     *slog.Logger
}

// New constructs the HTTP surface around the geocoding client.
func New(client GeocodeService, checker *health.Checker, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		client:  client,
		checker: checker,
		log:     log,
	}
}

// Handler builds the full middleware-wrapped route tree.
func (s *Server) Handler(cfg config.ServerConfig, limiter clientlimit.Limiter) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /geocode", s.handleGeocode)
	mux.HandleFunc("GET /reverse", s.handleReverse)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = RateLimit(limiter, cfg.ClientRateLimit, cfg.ClientRateWindow, s.log)(handler)
	handler = Metrics(handler)
	handler = Logging(s.log)(handler)
	handler = logger.Middleware(handler)

	return handler
}

// Run serves the API until ctx is canceled.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig, limiter clientlimit.Limiter) error {
	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: s.Handler(cfg, limiter),
	}

	return graceful.NewServer(s.log, srv, cfg.ShutdownTimeout).ListenAndServe(ctx)
}

type locationResponse struct {
	Address   string          `json:"address"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Provider  string          `json:"provider"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, geocode.NewQueryError("missing q parameter"))
		return
	}

	loc, err := s.client.Geocode(r.Context(), query)
	s.writeLocation(w, loc, err)
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		s.writeError(w, geocode.NewQueryError("lat and lon must be valid coordinates"))
		return
	}

	loc, err := s.client.Reverse(r.Context(), lat, lon)
	s.writeLocation(w, loc, err)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	results := s.checker.Check(r.Context())

	status := http.StatusOK
	if !health.Healthy(results) {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, results)
}

func (s *Server) writeLocation(w http.ResponseWriter, loc *geocode.Location, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}

	// A nil location with no error means the failure was swallowed.
	if loc == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no result", Kind: geocode.KindNotFound.String()})
		return
	}

	s.writeJSON(w, http.StatusOK, locationResponse{
		Address:   loc.Address,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Provider:  loc.Provider,
		Raw:       loc.Raw,
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := geocode.KindOf(err)
	s.writeJSON(w, statusForKind(kind), errorResponse{Error: err.Error(), Kind: kind.String()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", slog.Any("error", err))
	}
}

// statusForKind maps failure kinds back onto HTTP status codes for API callers.
func statusForKind(kind geocode.Kind) int {
	switch kind {
	case geocode.KindQuery:
		return http.StatusBadRequest
	case geocode.KindNotFound:
		return http.StatusNotFound
	case geocode.KindRateLimited, geocode.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case geocode.KindTimedOut:
		return http.StatusGatewayTimeout
	case geocode.KindConfiguration, geocode.KindAuthenticationFailure, geocode.KindInsufficientPrivileges:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}
