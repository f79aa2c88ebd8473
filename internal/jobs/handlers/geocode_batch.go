// Package handlers implements the background task processors.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/geogate/internal/domain"
	"github.com/Proton-105/geogate/internal/geocoder"
	"github.com/Proton-105/geogate/internal/jobs"
	"github.com/Proton-105/geogate/internal/repository"
)

// BatchGeocoder is the slice of the geocoding client batch tasks consume.
type BatchGeocoder interface {
	Provider() string
	GeocodeBatch(ctx context.Context, queries []string, progress geocoder.BatchProgress) ([]geocoder.Outcome, error)
}

// GeocodeBatchHandler resolves a queued list of queries through the paced client.
type GeocodeBatchHandler struct {
	client  BatchGeocoder
	results repository.ResultRepository
	log     *slog.Logger
}

// NewGeocodeBatchHandler builds the handler. results may be nil when no
// database is configured; resolved items are then only logged.
func NewGeocodeBatchHandler(client BatchGeocoder, results repository.ResultRepository, log *slog.Logger) *GeocodeBatchHandler {
	if log == nil {
		log = slog.Default()
	}

	return &GeocodeBatchHandler{
		client:  client,
		results: results,
		log:     log,
	}
}

// ProcessTask runs the batch. A failed (unswallowed) lookup fails the task so
// asynq retries it later; already-resolved items were saved and the upsert
// makes the rerun idempotent.
func (h *GeocodeBatchHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.GeocodeBatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "geocode batch: failed to decode payload",
			slog.String("task_type", t.Type()), slog.Any("error", err))
		return err
	}

	h.log.InfoContext(ctx, "geocode batch: starting",
		slog.Int("queries", len(payload.Queries)),
		slog.Bool("save_results", payload.SaveResults))

	queries := payload.Queries
	stored := 0
	if h.results != nil && payload.SaveResults {
		queries, stored = h.skipStored(ctx, queries)
	}

	outcomes, err := h.client.GeocodeBatch(ctx, queries, func(index, total int, out geocoder.Outcome) {
		if out.Success() && payload.SaveResults {
			h.saveResult(ctx, queries[index], out)
		}
	})

	resolved := 0
	for _, out := range outcomes {
		if out.Success() && out.Value != nil {
			resolved++
		}
	}

	h.log.InfoContext(ctx, "geocode batch: finished",
		slog.Int("resolved", resolved),
		slog.Int("stored", stored),
		slog.Int("processed", len(outcomes)),
		slog.Int("queries", len(payload.Queries)))

	return err
}

// skipStored drops queries that already have a saved result, so a rerun of a
// partially completed batch does not burn rate-limited provider calls on rows
// the database already holds. A lookup failure counts as a miss.
func (h *GeocodeBatchHandler) skipStored(ctx context.Context, queries []string) ([]string, int) {
	provider := h.client.Provider()
	pending := make([]string, 0, len(queries))
	stored := 0

	for _, query := range queries {
		_, err := h.results.FindByQuery(ctx, provider, "geocode", query)
		switch {
		case err == nil:
			stored++
		case errors.Is(err, repository.ErrNotFound):
			pending = append(pending, query)
		default:
			h.log.WarnContext(ctx, "geocode batch: stored result lookup failed",
				slog.String("query", query), slog.Any("error", err))
			pending = append(pending, query)
		}
	}

	return pending, stored
}

func (h *GeocodeBatchHandler) saveResult(ctx context.Context, query string, out geocoder.Outcome) {
	if h.results == nil || out.Value == nil {
		return
	}

	record := &domain.Record{
		Provider:  h.client.Provider(),
		Operation: "geocode",
		Query:     query,
		Address:   out.Value.Address,
		Latitude:  out.Value.Latitude,
		Longitude: out.Value.Longitude,
		Raw:       out.Value.Raw,
	}

	if err := h.results.Save(ctx, record); err != nil {
		h.log.WarnContext(ctx, "geocode batch: failed to save result",
			slog.String("query", query), slog.Any("error", err))
	}
}
