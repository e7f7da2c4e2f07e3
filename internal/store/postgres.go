package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/motoconnect/internal/analytics"
)

const denialSchema = `
	CREATE TABLE IF NOT EXISTS rate_limit_denials (
		id           UUID PRIMARY KEY,
		preset       TEXT        NOT NULL,
		identifier   TEXT        NOT NULL,
		method       TEXT        NOT NULL,
		path         TEXT        NOT NULL,
		request_id   TEXT,
		user_agent   TEXT,
		max_requests BIGINT      NOT NULL,
		reset_at     TIMESTAMPTZ NOT NULL,
		occurred_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS rate_limit_denials_occurred_at_idx
		ON rate_limit_denials (occurred_at DESC);
`

// PostgresStore is a PostgreSQL implementation of analytics.DenialLog.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed denial log.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the denial table and index when missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, denialSchema); err != nil {
		return fmt.Errorf("ensure denial schema: %w", err)
	}

	return nil
}

func (p *PostgresStore) SaveRateLimitExceeded(ctx context.Context, event *analytics.RateLimitExceededEvent) error {
	query := `
		INSERT INTO rate_limit_denials
			(id, preset, identifier, method, path, request_id, user_agent, max_requests, reset_at, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		event.ID,
		event.Preset,
		event.Identifier,
		event.Method,
		event.Path,
		nullableString(event.RequestID),
		nullableString(event.UserAgent),
		event.Limit,
		event.ResetAt,
		event.OccurredAt,
	)

	return err
}

func (p *PostgresStore) Recent(ctx context.Context, limit int) ([]analytics.RateLimitExceededEvent, error) {
	if limit <= 0 {
		limit = analytics.DefaultRecentLimit
	}

	query := `
		SELECT id::text, preset, identifier, method, path,
		       COALESCE(request_id, ''), COALESCE(user_agent, ''),
		       max_requests, reset_at, occurred_at
		FROM rate_limit_denials
		ORDER BY occurred_at DESC
		LIMIT $1
	`

	rows, err := p.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.RateLimitExceededEvent, error) {
		var e analytics.RateLimitExceededEvent

		err := row.Scan(
			&e.ID,
			&e.Preset,
			&e.Identifier,
			&e.Method,
			&e.Path,
			&e.RequestID,
			&e.UserAgent,
			&e.Limit,
			&e.ResetAt,
			&e.OccurredAt,
		)

		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("read denials: %w", err)
	}

	return events, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

var _ analytics.DenialLog = (*PostgresStore)(nil)
