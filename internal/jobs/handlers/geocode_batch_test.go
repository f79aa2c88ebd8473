package handlers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/geogate/internal/domain"
	"github.com/Proton-105/geogate/internal/geocoder"
	"github.com/Proton-105/geogate/internal/jobs"
	"github.com/Proton-105/geogate/internal/repository"
	"github.com/Proton-105/geogate/pkg/geocode"
)

type fakeBatchGeocoder struct {
	resolve func(query string) (*geocode.Location, error)
	seen    []string
}

func (f *fakeBatchGeocoder) Provider() string { return "nominatim" }

func (f *fakeBatchGeocoder) GeocodeBatch(ctx context.Context, queries []string, progress geocoder.BatchProgress) ([]geocoder.Outcome, error) {
	f.seen = append(f.seen, queries...)
	var outcomes []geocoder.Outcome
	for i, q := range queries {
		loc, err := f.resolve(q)
		out := geocoder.Outcome{Value: loc, Err: err, Attempts: 1}
		if progress != nil {
			progress(i, len(queries), out)
		}
		outcomes = append(outcomes, out)
		if out.Failed() {
			return outcomes, out.Err
		}
	}
	return outcomes, nil
}

type fakeResults struct {
	stored  map[string]*domain.Record
	saved   []*domain.Record
	deleted time.Duration
}

func (f *fakeResults) Save(ctx context.Context, record *domain.Record) error {
	f.saved = append(f.saved, record)
	return nil
}

func (f *fakeResults) FindByQuery(ctx context.Context, provider, operation, query string) (*domain.Record, error) {
	if record, ok := f.stored[query]; ok {
		return record, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeResults) Recent(ctx context.Context, limit int) ([]domain.Record, error) {
	return nil, nil
}

func (f *fakeResults) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	f.deleted = age
	return 7, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGeocodeBatchSavesResolvedItems(t *testing.T) {
	client := &fakeBatchGeocoder{
		resolve: func(query string) (*geocode.Location, error) {
			return &geocode.Location{Address: query, Latitude: 1, Longitude: 2}, nil
		},
	}
	results := &fakeResults{}
	handler := NewGeocodeBatchHandler(client, results, discardLogger())

	task, err := jobs.NewGeocodeBatchTask([]string{"paris", "berlin"}, true)
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	require.Len(t, results.saved, 2)
	assert.Equal(t, "nominatim", results.saved[0].Provider)
	assert.Equal(t, "geocode", results.saved[0].Operation)
	assert.Equal(t, "paris", results.saved[0].Query)
}

func TestGeocodeBatchFailsTaskOnFatalError(t *testing.T) {
	client := &fakeBatchGeocoder{
		resolve: func(query string) (*geocode.Location, error) {
			if query == "bad" {
				return nil, geocode.NewAuthenticationFailure("key revoked")
			}
			return &geocode.Location{Address: query}, nil
		},
	}
	results := &fakeResults{}
	handler := NewGeocodeBatchHandler(client, results, discardLogger())

	task, err := jobs.NewGeocodeBatchTask([]string{"a", "bad", "c"}, true)
	require.NoError(t, err)

	err = handler.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, geocode.KindAuthenticationFailure, geocode.KindOf(err))
	assert.Len(t, results.saved, 1)
}

func TestGeocodeBatchSkipsSavingWhenDisabled(t *testing.T) {
	client := &fakeBatchGeocoder{
		resolve: func(query string) (*geocode.Location, error) {
			return &geocode.Location{Address: query}, nil
		},
	}
	results := &fakeResults{}
	handler := NewGeocodeBatchHandler(client, results, discardLogger())

	task, err := jobs.NewGeocodeBatchTask([]string{"paris"}, false)
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Empty(t, results.saved)
}

func TestGeocodeBatchSkipsAlreadyStoredQueries(t *testing.T) {
	client := &fakeBatchGeocoder{
		resolve: func(query string) (*geocode.Location, error) {
			return &geocode.Location{Address: query, Latitude: 1, Longitude: 2}, nil
		},
	}
	results := &fakeResults{
		stored: map[string]*domain.Record{
			"paris": {Provider: "nominatim", Operation: "geocode", Query: "paris"},
		},
	}
	handler := NewGeocodeBatchHandler(client, results, discardLogger())

	task, err := jobs.NewGeocodeBatchTask([]string{"paris", "berlin"}, true)
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Equal(t, []string{"berlin"}, client.seen)
	require.Len(t, results.saved, 1)
	assert.Equal(t, "berlin", results.saved[0].Query)
}

func TestGeocodeBatchLooksUpStoredOnlyWhenSaving(t *testing.T) {
	client := &fakeBatchGeocoder{
		resolve: func(query string) (*geocode.Location, error) {
			return &geocode.Location{Address: query}, nil
		},
	}
	results := &fakeResults{
		stored: map[string]*domain.Record{
			"paris": {Query: "paris"},
		},
	}
	handler := NewGeocodeBatchHandler(client, results, discardLogger())

	task, err := jobs.NewGeocodeBatchTask([]string{"paris"}, false)
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Equal(t, []string{"paris"}, client.seen)
	assert.Empty(t, results.saved)
}

func TestGeocodeBatchRejectsMalformedPayload(t *testing.T) {
	handler := NewGeocodeBatchHandler(&fakeBatchGeocoder{}, nil, discardLogger())

	task := asynq.NewTask(jobs.TaskTypeGeocodeBatch, []byte("{not json"))
	assert.Error(t, handler.ProcessTask(context.Background(), task))
}

func TestCleanupResultsDeletesStaleRows(t *testing.T) {
	results := &fakeResults{}
	handler := NewCleanupResultsHandler(results, discardLogger())

	task, err := jobs.NewCleanupResultsTask(48 * time.Hour)
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Equal(t, 48*time.Hour, results.deleted)
}
