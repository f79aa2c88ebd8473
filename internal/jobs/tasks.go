// Package jobs queues background work on Redis via asynq.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeGeocodeBatch   = "geocode:batch"
	TaskTypeCleanupResults = "results:cleanup"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// GeocodeBatchPayload carries the queries for one background batch run.
type GeocodeBatchPayload struct {
	Queries     []string `json:"queries"`
	SaveResults bool     `json:"save_results"`
}

// CleanupResultsPayload bounds the age of stored results to keep.
type CleanupResultsPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewGeocodeBatchTask builds a batch geocoding task for the default queue.
func NewGeocodeBatchTask(queries []string, saveResults bool) (*asynq.Task, error) {
	payload, err := json.Marshal(GeocodeBatchPayload{Queries: queries, SaveResults: saveResults})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeGeocodeBatch, payload, asynq.Queue(QueueDefault)), nil
}

// NewCleanupResultsTask builds a stored-result cleanup task for the low queue.
func NewCleanupResultsTask(olderThan time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(CleanupResultsPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeCleanupResults, payload, asynq.Queue(QueueLow)), nil
}
