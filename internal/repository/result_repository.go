// Package repository persists resolved geocoding results.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Proton-105/geogate/internal/domain"
)

// ErrNotFound indicates no stored result matched the lookup.
var ErrNotFound = errors.New("result not found")

// ResultRepository defines persistence operations for geocoding results.
type ResultRepository interface {
	Save(ctx context.Context, record *domain.Record) error
	FindByQuery(ctx context.Context, provider, operation, query string) (*domain.Record, error)
	Recent(ctx context.Context, limit int) ([]domain.Record, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type resultRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewResultRepository creates a new SQL-backed result repository.
func NewResultRepository(db *sql.DB, log *slog.Logger) ResultRepository {
	if log == nil {
		log = slog.Default()
	}

	return &resultRepository{
		db:  db,
		log: log,
	}
}

// Save upserts a result keyed by provider, operation and query, so repeating
// a lookup refreshes the stored row instead of duplicating it.
func (r *resultRepository) Save(ctx context.Context, record *domain.Record) error {
	const query = `
		INSERT INTO results (provider, operation, query, address, latitude, longitude, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider, operation, query)
		DO UPDATE SET address = EXCLUDED.address,
		              latitude = EXCLUDED.latitude,
		              longitude = EXCLUDED.longitude,
		              raw = EXCLUDED.raw,
		              created_at = now()
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		record.Provider,
		record.Operation,
		record.Query,
		record.Address,
		record.Latitude,
		record.Longitude,
		record.Raw,
	); err != nil {
		r.log.Error("failed to save result",
			slog.String("provider", record.Provider),
			slog.String("query", record.Query),
			slog.Any("error", err),
		)
		return fmt.Errorf("insert result: %w", err)
	}

	return nil
}

// FindByQuery retrieves a stored result for the exact provider, operation and query.
func (r *resultRepository) FindByQuery(ctx context.Context, provider, operation, query string) (*domain.Record, error) {
	const stmt = `
		SELECT id, provider, operation, query, address, latitude, longitude, raw, created_at
		FROM results
		WHERE provider = $1 AND operation = $2 AND query = $3
	`

	row := r.db.QueryRowContext(ctx, stmt, provider, operation, query)

	var record domain.Record
	if err := row.Scan(
		&record.ID,
		&record.Provider,
		&record.Operation,
		&record.Query,
		&record.Address,
		&record.Latitude,
		&record.Longitude,
		&record.Raw,
		&record.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		r.log.Error("failed to fetch result",
			slog.String("provider", provider),
			slog.String("query", query),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("select result: %w", err)
	}

	return &record, nil
}

// Recent returns the most recently stored results, newest first.
func (r *resultRepository) Recent(ctx context.Context, limit int) ([]domain.Record, error) {
	const stmt = `
		SELECT id, provider, operation, query, address, latitude, longitude, raw, created_at
		FROM results
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.Record
	for rows.Next() {
		var record domain.Record
		if err := rows.Scan(
			&record.ID,
			&record.Provider,
			&record.Operation,
			&record.Query,
			&record.Address,
			&record.Latitude,
			&record.Longitude,
			&record.Raw,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return records, nil
}

// DeleteOlderThan removes results stored longer ago than age and reports how
// many rows were removed.
func (r *resultRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	const stmt = `DELETE FROM results WHERE created_at < $1`

	res, err := r.db.ExecContext(ctx, stmt, time.Now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("delete stale results: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted results: %w", err)
	}

	return deleted, nil
}
