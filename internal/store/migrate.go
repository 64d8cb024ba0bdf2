package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations run in order on every start. Each statement is idempotent, so a fresh install and an
// upgrade from the first schema (no usage_count, no status) both end up on the current table.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS qr_codes (
		id          BIGSERIAL PRIMARY KEY,
		qr_code_url TEXT NOT NULL DEFAULT '',
		target_url  TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`ALTER TABLE qr_codes ADD COLUMN IF NOT EXISTS usage_count BIGINT NOT NULL DEFAULT 0`,
	`ALTER TABLE qr_codes ADD COLUMN IF NOT EXISTS status TEXT NOT NULL DEFAULT 'pending'`,
	`UPDATE qr_codes SET status = 'rendered' WHERE status = 'pending' AND qr_code_url <> ''`,
	`CREATE INDEX IF NOT EXISTS idx_qr_codes_created_at ON qr_codes (created_at DESC)`,
}

// migrationLockKey identifies the advisory lock that serializes Migrate across processes.
const migrationLockKey int64 = 0x71725f636f646573 // "qr_codes"

// Migrate creates or upgrades the qr_codes table. All statements run in one transaction that
// first takes a transaction-scoped advisory lock, so a server and a worker starting together
// apply the schema one after the other.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}

	for i, stmt := range migrations {
		if _, err = tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}

	return nil
}
