// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"minecraft-rewind/internal/model"
)

// ErrDuplicateSnapshot indicates a snapshot already exists for the same
// player and extraction date. The existing snapshot is never overwritten.
var ErrDuplicateSnapshot = errors.New("snapshot already exists for this player and date")

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// SnapshotRepository handles snapshot persistence. A snapshot header plus
// its stat and top-item rows are written in a single transaction.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository instance.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Save persists a weekly summary as a new snapshot and returns its ID.
// Returns ErrDuplicateSnapshot if a snapshot already exists for
// (playerUUID, extractionDate); uniqueness is enforced by the database
// constraint, so concurrent saves have exactly one winner.
func (r *SnapshotRepository) Save(ctx context.Context, playerUUID string, extractionDate time.Time, summary *model.Summary, playerName *string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	var snapshotID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO snapshots (player_uuid, player_name, extraction_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`, playerUUID, playerName, extractionDate).Scan(&snapshotID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, ErrDuplicateSnapshot
		}
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stats := summary.Stats()
	for _, key := range model.StatKeys() {
		if _, err := tx.Exec(ctx, `
			INSERT INTO stats (snapshot_id, stat_key, stat_value)
			VALUES ($1, $2, $3)
		`, snapshotID, key, stats[key]); err != nil {
			return 0, fmt.Errorf("failed to insert stat %s: %w", key, err)
		}
	}

	for _, category := range model.TopCategories() {
		item := summary.TopItems[category]
		if _, err := tx.Exec(ctx, `
			INSERT INTO top_items (snapshot_id, category, item_name, item_count)
			VALUES ($1, $2, $3, $4)
		`, snapshotID, category, item.Name, item.Count); err != nil {
			return 0, fmt.Errorf("failed to insert top item %s: %w", category, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit save: %w", err)
	}

	return snapshotID, nil
}

// Get retrieves a snapshot with its stats and top items.
// Returns nil when no snapshot exists for the given player and date.
func (r *SnapshotRepository) Get(ctx context.Context, playerUUID string, extractionDate time.Time) (*model.Snapshot, error) {
	const query = `
		SELECT id, player_uuid, player_name, extraction_date, created_at
		FROM snapshots
		WHERE player_uuid = $1 AND extraction_date = $2
	`

	var snap model.Snapshot
	err := r.pool.QueryRow(ctx, query, playerUUID, extractionDate).Scan(
		&snap.ID,
		&snap.PlayerUUID,
		&snap.PlayerName,
		&snap.ExtractionDate,
		&snap.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	if err := r.loadChildren(ctx, &snap); err != nil {
		return nil, err
	}

	return &snap, nil
}

// GetLatest retrieves the most recent snapshots of a player, newest
// extraction date first, bounded by limit.
func (r *SnapshotRepository) GetLatest(ctx context.Context, playerUUID string, limit int) ([]*model.Snapshot, error) {
	const query = `
		SELECT id, player_uuid, player_name, extraction_date, created_at
		FROM snapshots
		WHERE player_uuid = $1
		ORDER BY extraction_date DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, playerUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		err := rows.Scan(
			&snap.ID,
			&snap.PlayerUUID,
			&snap.PlayerName,
			&snap.ExtractionDate,
			&snap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	for _, snap := range snapshots {
		if err := r.loadChildren(ctx, snap); err != nil {
			return nil, err
		}
	}

	return snapshots, nil
}

// ListPlayers returns the distinct players in the store, ordered by most
// recent activity descending.
func (r *SnapshotRepository) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	const query = `
		SELECT s.player_uuid, s.player_name
		FROM snapshots s
		JOIN (
			SELECT player_uuid, MAX(extraction_date) AS latest
			FROM snapshots
			GROUP BY player_uuid
		) m ON m.player_uuid = s.player_uuid AND m.latest = s.extraction_date
		ORDER BY m.latest DESC, s.player_uuid
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.UUID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return players, nil
}

// Delete removes a snapshot; its stat and top-item rows go with it via
// ON DELETE CASCADE. Returns whether a snapshot was actually removed.
func (r *SnapshotRepository) Delete(ctx context.Context, playerUUID string, extractionDate time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM snapshots
		WHERE player_uuid = $1 AND extraction_date = $2
	`, playerUUID, extractionDate)
	if err != nil {
		return false, fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// loadChildren fills in the stat and top-item rows of a snapshot header.
func (r *SnapshotRepository) loadChildren(ctx context.Context, snap *model.Snapshot) error {
	rows, err := r.pool.Query(ctx,
		`SELECT stat_key, stat_value FROM stats WHERE snapshot_id = $1`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}
	defer rows.Close()

	snap.Stats = make(map[string]float64)
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan stat: %w", err)
		}
		snap.Stats[key] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating stats: %w", err)
	}

	itemRows, err := r.pool.Query(ctx,
		`SELECT category, item_name, item_count FROM top_items WHERE snapshot_id = $1`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to get top items: %w", err)
	}
	defer itemRows.Close()

	snap.TopItems = make(map[string]model.TopItem)
	for itemRows.Next() {
		var category string
		var item model.TopItem
		if err := itemRows.Scan(&category, &item.Name, &item.Count); err != nil {
			return fmt.Errorf("failed to scan top item: %w", err)
		}
		snap.TopItems[category] = item
	}
	if err := itemRows.Err(); err != nil {
		return fmt.Errorf("error iterating top items: %w", err)
	}

	return nil
}
