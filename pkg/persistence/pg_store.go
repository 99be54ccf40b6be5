package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Schema for the single table PgStore owns. Migrations are an external
// collaborator's concern (spec.md Non-goals); callers run this (or an
// equivalent) once against their database.
const Schema = `
CREATE TABLE IF NOT EXISTS relprop_engines (
	key        text PRIMARY KEY,
	record     jsonb NOT NULL,
	fit_id     text NOT NULL,
	fitted_at  timestamptz NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

// PgStore persists Records as JSONB rows in Postgres via pgx/pgxpool,
// the way data-service/internal/repository/feature_repo.go stores
// computed_features.features as JSONB.
type PgStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStore creates a connection pool to connStr and verifies
// connectivity, mirroring go-strats/pkg/persistence.NewClient.
func NewPgStore(ctx context.Context, connStr string, logger *zap.Logger) (*PgStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("persistence: parsing connection string: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("persistence: creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("persistence: pinging database: %w", err)
	}

	logger.Info("relprop persistence pool established", zap.Int32("max_conns", cfg.MaxConns))
	return &PgStore{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the backing table if it does not already exist.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("persistence: ensuring schema: %w", err)
	}
	return nil
}

// Save implements Store.
func (s *PgStore) Save(ctx context.Context, key string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("persistence: encoding record %q: %w", key, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO relprop_engines (key, record, fit_id, fitted_at, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (key) DO UPDATE SET
		   record = EXCLUDED.record,
		   fit_id = EXCLUDED.fit_id,
		   fitted_at = EXCLUDED.fitted_at,
		   updated_at = now()`,
		key, data, rec.FitID, rec.FittedAt,
	)
	if err != nil {
		return fmt.Errorf("persistence: saving record %q: %w", key, err)
	}
	s.logger.Debug("saved engine record", zap.String("key", key), zap.String("fit_id", rec.FitID))
	return nil
}

// Load implements Store.
func (s *PgStore) Load(ctx context.Context, key string) (*Record, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT record FROM relprop_engines WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("persistence: loading record %q: %w", key, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("persistence: decoding record %q: %w", key, err)
	}
	return &rec, nil
}

// Delete implements Store.
func (s *PgStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM relprop_engines WHERE key = $1`, key); err != nil {
		return fmt.Errorf("persistence: deleting record %q: %w", key, err)
	}
	return nil
}

// Close implements Store.
func (s *PgStore) Close() error {
	s.pool.Close()
	return nil
}
