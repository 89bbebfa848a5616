package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const migrationsLogPrefix = "audit:migrations"

// Schema is the full audit schema. It is idempotent and applied as a
// single migration.
const Schema = `
CREATE TABLE IF NOT EXISTS invocations (
  id          BIGSERIAL PRIMARY KEY,
  request_id  TEXT NOT NULL,
  method      TEXT NOT NULL,
  transport   TEXT NOT NULL,
  status      TEXT NOT NULL,
  error       TEXT,
  duration_ms BIGINT NOT NULL DEFAULT 0,
  created     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_invocations_method ON invocations (method);
CREATE INDEX IF NOT EXISTS idx_invocations_created ON invocations (created DESC);
`

// RunMigrations applies the audit schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Running audit migrations", migrationsLogPrefix))

	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("%s - migration failed: %w", migrationsLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Migrations complete", migrationsLogPrefix))
	return nil
}

// MigrationStatus reports whether the audit schema has been applied (by
// checking for the invocations table).
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool) error {
	const statusLogPrefix = "audit:MigrationStatus"

	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'invocations')`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s - failed to check schema: %w", statusLogPrefix, err)
	}

	if exists {
		fmt.Println("Migration status: applied (invocations table present)")
	} else {
		fmt.Println("Migration status: not applied (run 'methodbus migrate up')")
	}
	return nil
}
