package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"minecraft-rewind/internal/model"
)

// QueryRepository serves the read-only query surface of the dashboard and
// bot: leaderboards, global totals and per-player history. All queries
// consider only each player's latest snapshot unless stated otherwise.
type QueryRepository struct {
	pool *pgxpool.Pool
}

// NewQueryRepository creates a new QueryRepository instance.
func NewQueryRepository(pool *pgxpool.Pool) *QueryRepository {
	return &QueryRepository{pool: pool}
}

// Leaderboard returns the top players for a statistic, drawn from each
// player's latest snapshot, sorted descending by value. Ranks are
// 1-indexed by position; equal values keep a stable query order.
func (r *QueryRepository) Leaderboard(ctx context.Context, statKey string, limit int) ([]*model.LeaderboardEntry, error) {
	const query = `
		SELECT s.player_uuid, s.player_name, st.stat_value, s.extraction_date
		FROM snapshots s
		JOIN stats st ON st.snapshot_id = s.id
		WHERE st.stat_key = $1
		  AND s.extraction_date = (
			SELECT MAX(s2.extraction_date)
			FROM snapshots s2
			WHERE s2.player_uuid = s.player_uuid
		  )
		ORDER BY st.stat_value DESC, s.player_uuid
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, statKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*model.LeaderboardEntry
	for rows.Next() {
		var entry model.LeaderboardEntry
		var name *string
		if err := rows.Scan(&entry.UUID, &name, &entry.Value, &entry.Date); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		player := model.Player{UUID: entry.UUID, Name: name}
		entry.Name = player.DisplayName()
		entry.Rank = len(entries) + 1
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return entries, nil
}

// GlobalStats aggregates the latest snapshot of every player: total
// distinct players, latest extraction date and per-key stat totals.
func (r *QueryRepository) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	stats := &model.GlobalStats{Totals: make(map[string]float64)}

	err := r.pool.QueryRow(ctx, `
		SELECT MAX(extraction_date), COUNT(DISTINCT player_uuid)
		FROM snapshots
	`).Scan(&stats.LatestDate, &stats.TotalPlayers)
	if err != nil {
		return nil, fmt.Errorf("failed to get global stats: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT st.stat_key, SUM(st.stat_value)
		FROM stats st
		JOIN snapshots s ON s.id = st.snapshot_id
		WHERE s.extraction_date = (
			SELECT MAX(s2.extraction_date)
			FROM snapshots s2
			WHERE s2.player_uuid = s.player_uuid
		)
		GROUP BY st.stat_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get stat totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var total float64
		if err := rows.Scan(&key, &total); err != nil {
			return nil, fmt.Errorf("failed to scan stat total: %w", err)
		}
		stats.Totals[key] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stat totals: %w", err)
	}

	return stats, nil
}

// PlayerHistory returns a player's scalar stats over their most recent
// snapshots, newest first.
func (r *QueryRepository) PlayerHistory(ctx context.Context, playerUUID string, limit int) ([]*model.HistoryEntry, error) {
	const query = `
		SELECT s.extraction_date, st.stat_key, st.stat_value
		FROM snapshots s
		JOIN stats st ON st.snapshot_id = s.id
		WHERE s.player_uuid = $1
		  AND s.extraction_date >= COALESCE((
			SELECT MIN(d) FROM (
				SELECT extraction_date AS d
				FROM snapshots
				WHERE player_uuid = $1
				ORDER BY extraction_date DESC
				LIMIT $2
			) recent
		  ), 'epoch'::date)
		ORDER BY s.extraction_date DESC
	`

	rows, err := r.pool.Query(ctx, query, playerUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get player history: %w", err)
	}
	defer rows.Close()

	var history []*model.HistoryEntry
	var current *model.HistoryEntry
	for rows.Next() {
		var date time.Time
		var key string
		var value float64
		if err := rows.Scan(&date, &key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if current == nil || !current.Date.Equal(date) {
			current = &model.HistoryEntry{Date: date, Stats: make(map[string]float64)}
			history = append(history, current)
		}
		current.Stats[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return history, nil
}

// PlayerByName finds a player by display name, case-insensitively.
// Returns nil when no snapshot carries that name.
func (r *QueryRepository) PlayerByName(ctx context.Context, name string) (*model.Player, error) {
	const query = `
		SELECT DISTINCT player_uuid, player_name
		FROM snapshots
		WHERE LOWER(player_name) = LOWER($1)
		LIMIT 1
	`

	var p model.Player
	err := r.pool.QueryRow(ctx, query, name).Scan(&p.UUID, &p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find player by name: %w", err)
	}

	return &p, nil
}

// NamedPlayers lists players with a known display name, sorted by name.
// Used for search and autocomplete.
func (r *QueryRepository) NamedPlayers(ctx context.Context) ([]*model.Player, error) {
	const query = `
		SELECT DISTINCT player_uuid, player_name
		FROM snapshots
		WHERE player_name IS NOT NULL
		ORDER BY player_name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list named players: %w", err)
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
