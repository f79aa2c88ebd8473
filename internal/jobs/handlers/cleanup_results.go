package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/geogate/internal/jobs"
	"github.com/Proton-105/geogate/internal/repository"
)

// CleanupResultsHandler prunes stored results past their retention age.
type CleanupResultsHandler struct {
	results repository.ResultRepository
	log     *slog.Logger
}

// NewCleanupResultsHandler builds the handler.
func NewCleanupResultsHandler(results repository.ResultRepository, log *slog.Logger) *CleanupResultsHandler {
	if log == nil {
		log = slog.Default()
	}

	return &CleanupResultsHandler{
		results: results,
		log:     log,
	}
}

// ProcessTask deletes results older than the payload's cutoff.
func (h *CleanupResultsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.CleanupResultsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "result cleanup: failed to decode payload",
			slog.String("task_type", t.Type()), slog.Any("error", err))
		return err
	}

	if h.results == nil {
		h.log.WarnContext(ctx, "result cleanup: no database configured, skipping")
		return nil
	}

	age := payload.OlderThan
	if age <= 0 {
		age = 90 * 24 * time.Hour
	}

	deleted, err := h.results.DeleteOlderThan(ctx, age)
	if err != nil {
		h.log.ErrorContext(ctx, "result cleanup: delete failed", slog.Any("error", err))
		return err
	}

	h.log.InfoContext(ctx, "result cleanup: finished",
		slog.Int64("deleted", deleted),
		slog.Duration("older_than", age))

	return nil
}
