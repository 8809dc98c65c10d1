// Package repo provides database repositories
package repo

import (
	"context"
	"encoding/json"

	"go-mlwrapper/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool the repositories use
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PredictionLogRepo handles prediction audit persistence
type PredictionLogRepo struct {
	pool DBTX
}

// NewPredictionLogRepo creates a new prediction log repository
func NewPredictionLogRepo(pool DBTX) *PredictionLogRepo {
	return &PredictionLogRepo{pool: pool}
}

// Insert writes one audit row
func (r *PredictionLogRepo) Insert(ctx context.Context, entry domain.PredictionLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prediction_log(request_id, flight_number, request, outcome, status_code, result, latency_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		entry.RequestID, entry.FlightNumber, entry.Request, entry.Outcome,
		entry.StatusCode, nullableJSON(entry.Result), entry.LatencyMs)
	return err
}

// ListRecent lists the most recent audit rows
func (r *PredictionLogRepo) ListRecent(ctx context.Context, limit int) ([]domain.PredictionLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, request_id, flight_number, request, outcome, status_code, result, latency_ms, created_at
		FROM prediction_log ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.PredictionLog{}
	for rows.Next() {
		var item domain.PredictionLog
		if err := rows.Scan(&item.ID, &item.RequestID, &item.FlightNumber, &item.Request,
			&item.Outcome, &item.StatusCode, &item.Result, &item.LatencyMs, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// InitDB initializes database tables
func InitDB(ctx context.Context, pool DBTX) error {
	for _, q := range schema {
		if _, err := pool.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS prediction_log(
		id BIGSERIAL PRIMARY KEY,
		request_id TEXT NOT NULL,
		flight_number TEXT NOT NULL,
		request JSONB NOT NULL,
		outcome TEXT NOT NULL,
		status_code INT,
		result JSONB,
		latency_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_prediction_log_created
	 ON prediction_log(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS ix_prediction_log_outcome
	 ON prediction_log(outcome)`,
}

// nil RawMessage must reach Postgres as NULL, not as an empty JSON value
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
