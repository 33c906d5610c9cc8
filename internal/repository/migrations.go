package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migration is one idempotent schema step. Steps are gated by the
// schema_version table so repeated runs are no-ops and storage errors are
// never silently swallowed.
type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create snapshots table",
		sql: `
			CREATE TABLE IF NOT EXISTS snapshots (
				id BIGSERIAL PRIMARY KEY,
				player_uuid TEXT NOT NULL,
				player_name TEXT,
				extraction_date DATE NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (player_uuid, extraction_date)
			);
			CREATE INDEX IF NOT EXISTS idx_snapshots_player ON snapshots(player_uuid);
			CREATE INDEX IF NOT EXISTS idx_snapshots_date ON snapshots(extraction_date);
		`,
	},
	{
		version: 2,
		name:    "create stats table",
		sql: `
			CREATE TABLE IF NOT EXISTS stats (
				id BIGSERIAL PRIMARY KEY,
				snapshot_id BIGINT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
				stat_key TEXT NOT NULL,
				stat_value DOUBLE PRECISION NOT NULL,
				UNIQUE (snapshot_id, stat_key)
			);
			CREATE INDEX IF NOT EXISTS idx_stats_snapshot ON stats(snapshot_id);
			CREATE INDEX IF NOT EXISTS idx_stats_key_value ON stats(stat_key, stat_value DESC);
		`,
	},
	{
		version: 3,
		name:    "create top_items table",
		sql: `
			CREATE TABLE IF NOT EXISTS top_items (
				id BIGSERIAL PRIMARY KEY,
				snapshot_id BIGINT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
				category TEXT NOT NULL,
				item_name TEXT,
				item_count BIGINT NOT NULL DEFAULT 0,
				UNIQUE (snapshot_id, category)
			);
			CREATE INDEX IF NOT EXISTS idx_top_items_snapshot ON top_items(snapshot_id);
		`,
	},
}

// Migrate applies all pending schema migrations. It is called once by the
// composing entrypoint, never implicitly.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INT PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(ctx, m.sql); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_version (version, name) VALUES ($1, $2)`,
			m.version, m.name,
		); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}

		log.Info().Int("version", m.version).Str("name", m.name).Msg("Migration applied")
	}

	return nil
}
