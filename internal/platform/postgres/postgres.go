// Package postgres opens the primary store connection and applies the
// schema. Migrations are plain statements run at startup; the schema is small
// enough that a migration tool would be overhead.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"oilcert/internal/platform/config"
)

// Open connects via the pgx stdlib driver and verifies the connection.
func Open(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the registry schema. All statements are idempotent so
// startup is safe to repeat.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS certificate_sequence (
			id      BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
			last_id BIGINT NOT NULL
		)`,
		`INSERT INTO certificate_sequence (id, last_id) VALUES (TRUE, 0)
			ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS certificates (
			id               BIGINT PRIMARY KEY,
			owner            TEXT NOT NULL,
			restaurant_name  TEXT NOT NULL,
			location         TEXT NOT NULL,
			contact_email    TEXT NOT NULL DEFAULT '',
			metadata_uri     TEXT NOT NULL DEFAULT '',
			level            TEXT NOT NULL,
			status           TEXT NOT NULL,
			compliance_score INT NOT NULL,
			issue_date       TIMESTAMPTZ NOT NULL,
			expiry_date      TIMESTAMPTZ NOT NULL,
			issued_by        TEXT NOT NULL,
			last_updated     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS certificates_active_name_idx
			ON certificates (restaurant_name) WHERE status <> 'revoked'`,
		`CREATE INDEX IF NOT EXISTS certificates_status_expiry_idx
			ON certificates (status, expiry_date)`,
		`CREATE TABLE IF NOT EXISTS role_assignments (
			identity   TEXT NOT NULL,
			role       TEXT NOT NULL,
			granted_by TEXT NOT NULL,
			granted_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (identity, role)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_events (
			sequence_number BIGINT PRIMARY KEY,
			id              UUID NOT NULL,
			certificate_id  BIGINT NOT NULL,
			kind            TEXT NOT NULL,
			actor           TEXT NOT NULL,
			occurred_at     TIMESTAMPTZ NOT NULL,
			details         JSONB NOT NULL DEFAULT '{}',
			request_id      TEXT NOT NULL DEFAULT '',
			prev_hash       TEXT NOT NULL,
			hash            TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS audit_events_certificate_idx
			ON audit_events (certificate_id, sequence_number)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
