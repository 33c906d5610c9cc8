// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"minecraft-rewind/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	err = Migrate(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func strPtr(s string) *string { return &s }

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// testSummary builds a summary with distinguishable values.
func testSummary(blocksMined int64) *model.Summary {
	return &model.Summary{
		PlaytimeHours: 12.5,
		DistanceKM:    3.42,
		MobKills:      42,
		BlocksMined:   blocksMined,
		BlocksCrafted: 20,
		Deaths:        3,
		ToolsBroken:   2,
		TopItems: map[string]model.TopItem{
			model.CategoryMined:   {Name: strPtr("stone"), Count: 80},
			model.CategoryKilled:  {Name: strPtr("zombie"), Count: 15},
			model.CategoryBroken:  {Name: strPtr("wooden_pickaxe"), Count: 2},
			model.CategoryCrafted: {Name: nil, Count: 0},
		},
	}
}

const (
	playerA = "9e6d1337-4a2b-4c6e-8f00-0123456789ab"
	playerB = "11111111-2222-3333-4444-555555555555"
	playerC = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
)

func TestMigrate_Idempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	// setupTestDB already migrated once; a second run must be a no-op.
	err := Migrate(context.Background(), pool)
	require.NoError(t, err)

	var version int
	err = pool.QueryRow(context.Background(), `SELECT MAX(version) FROM schema_version`).Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestSnapshotRepository_SaveAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSnapshotRepository(pool)
	ctx := context.Background()
	day := date(2026, time.August, 24)
	summary := testSummary(150)

	id, err := repo.Save(ctx, playerA, day, summary, strPtr("Steve"))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	snap, err := repo.Get(ctx, playerA, day)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, playerA, snap.PlayerUUID)
	require.NotNil(t, snap.PlayerName)
	assert.Equal(t, "Steve", *snap.PlayerName)
	assert.False(t, snap.CreatedAt.IsZero())

	// Round-trip: persisted stats and top items equal the summary's fields.
	assert.Equal(t, summary.Stats(), snap.Stats)
	require.Len(t, snap.TopItems, 4)
	assert.Equal(t, "stone", *snap.TopItems[model.CategoryMined].Name)
	assert.Equal(t, int64(80), snap.TopItems[model.CategoryMined].Count)
	assert.Nil(t, snap.TopItems[model.CategoryCrafted].Name)
	assert.Equal(t, int64(0), snap.TopItems[model.CategoryCrafted].Count)
}

func TestSnapshotRepository_Get_Absent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSnapshotRepository(pool)

	snap, err := repo.Get(context.Background(), playerA, date(2026, time.August, 24))
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotRepository_DuplicateSave(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSnapshotRepository(pool)
	ctx := context.Background()
	day := date(2026, time.August, 24)

	_, err := repo.Save(ctx, playerA, day, testSummary(100), strPtr("Steve"))
	require.NoError(t, err)

	_, err = repo.Save(ctx, playerA, day, testSummary(999), strPtr("Steve"))
	assert.ErrorIs(t, err, ErrDuplicateSnapshot)

	// The first save's data remains intact and queryable.
	snap, err := repo.Get(ctx, playerA, day)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, float64(100), snap.Stats[model.StatBlocksMined])

	// Same date for another player is fine.
	_, err = repo.Save(ctx, playerB, day, testSummary(50), nil)
	require.NoError(t, err)
}

func TestSnapshotRepository_GetLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSnapshotRepository(pool)
	ctx := context.Background()

	for i, day := range []time.Time{
		date(2026, time.August, 10),
		date(2026, time.August, 17),
		date(2026, time.August, 24),
	} {
		_, err := repo.Save(ctx, playerA, day, testSummary(int64(100+i)), strPtr("Steve"))
		require.NoError(t, err)
	}

	snapshots, err := repo.GetLatest(ctx, playerA, 2)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, date(2026, time.August, 24), snapshots[0].ExtractionDate.UTC())
	assert.Equal(t, date(2026, time.August, 17), snapshots[1].ExtractionDate.UTC())
	assert.Equal(t, float64(102), snapshots[0].Stats[model.StatBlocksMined])

	// No snapshots for an unknown player.
	snapshots, err = repo.GetLatest(ctx, playerC, 10)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestSnapshotRepository_ListPlayers(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSnapshotRepository(pool)
	ctx := context.Background()

	_, err := repo.Save(ctx, playerA, date(2026, time.August, 10), testSummary(1), strPtr("Steve"))
	require.NoError(t, err)
	_, err = repo.Save(ctx, playerB, date(2026, time.August, 24), testSummary(2), strPtr("Alex"))
	require.NoError(t, err)

	players, err := repo.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 2)

	// Most recent activity first.
	assert.Equal(t, playerB, players[0].UUID)
	assert.Equal(t, "Alex", players[0].DisplayName())
	assert.Equal(t, playerA, players[1].UUID)
}

func TestSnapshotRepository_DeleteCascades(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSnapshotRepository(pool)
	ctx := context.Background()
	day := date(2026, time.August, 24)

	id, err := repo.Save(ctx, playerA, day, testSummary(100), strPtr("Steve"))
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, playerA, day)
	require.NoError(t, err)
	assert.True(t, deleted)

	snap, err := repo.Get(ctx, playerA, day)
	require.NoError(t, err)
	assert.Nil(t, snap)

	// Child rows are gone as well.
	var statRows, itemRows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM stats WHERE snapshot_id = $1`, id).Scan(&statRows))
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM top_items WHERE snapshot_id = $1`, id).Scan(&itemRows))
	assert.Zero(t, statRows)
	assert.Zero(t, itemRows)

	// Deleting again reports nothing removed.
	deleted, err = repo.Delete(ctx, playerA, day)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestQueryRepository_Leaderboard(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	snapRepo := NewSnapshotRepository(pool)
	queryRepo := NewQueryRepository(pool)
	ctx := context.Background()

	// Player A improved over two weeks; only the latest snapshot counts.
	_, err := snapRepo.Save(ctx, playerA, date(2026, time.August, 17), testSummary(500), strPtr("Steve"))
	require.NoError(t, err)
	_, err = snapRepo.Save(ctx, playerA, date(2026, time.August, 24), testSummary(120), strPtr("Steve"))
	require.NoError(t, err)
	_, err = snapRepo.Save(ctx, playerB, date(2026, time.August, 24), testSummary(300), strPtr("Alex"))
	require.NoError(t, err)

	entries, err := queryRepo.Leaderboard(ctx, model.StatBlocksMined, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "Alex", entries[0].Name)
	assert.Equal(t, float64(300), entries[0].Value)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "Steve", entries[1].Name)
	assert.Equal(t, float64(120), entries[1].Value)

	// Limit truncates.
	entries, err = queryRepo.Leaderboard(ctx, model.StatBlocksMined, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Alex", entries[0].Name)
}

func TestQueryRepository_GlobalStats(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	snapRepo := NewSnapshotRepository(pool)
	queryRepo := NewQueryRepository(pool)
	ctx := context.Background()

	stats, err := queryRepo.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Nil(t, stats.LatestDate)
	assert.Zero(t, stats.TotalPlayers)
	assert.Empty(t, stats.Totals)

	_, err = snapRepo.Save(ctx, playerA, date(2026, time.August, 24), testSummary(100), strPtr("Steve"))
	require.NoError(t, err)
	_, err = snapRepo.Save(ctx, playerB, date(2026, time.August, 24), testSummary(200), strPtr("Alex"))
	require.NoError(t, err)

	stats, err = queryRepo.GlobalStats(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats.LatestDate)
	assert.Equal(t, date(2026, time.August, 24), stats.LatestDate.UTC())
	assert.Equal(t, 2, stats.TotalPlayers)
	assert.Equal(t, float64(300), stats.Totals[model.StatBlocksMined])
	assert.Equal(t, float64(25), stats.Totals[model.StatPlaytimeHours])
}

func TestQueryRepository_PlayerHistory(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	snapRepo := NewSnapshotRepository(pool)
	queryRepo := NewQueryRepository(pool)
	ctx := context.Background()

	for i, day := range []time.Time{
		date(2026, time.August, 10),
		date(2026, time.August, 17),
		date(2026, time.August, 24),
	} {
		_, err := snapRepo.Save(ctx, playerA, day, testSummary(int64(100*(i+1))), strPtr("Steve"))
		require.NoError(t, err)
	}

	history, err := queryRepo.PlayerHistory(ctx, playerA, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, date(2026, time.August, 24), history[0].Date.UTC())
	assert.Equal(t, float64(300), history[0].Stats[model.StatBlocksMined])
	assert.Equal(t, date(2026, time.August, 17), history[1].Date.UTC())
	assert.Equal(t, float64(200), history[1].Stats[model.StatBlocksMined])
}

func TestQueryRepository_PlayerByName(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	snapRepo := NewSnapshotRepository(pool)
	queryRepo := NewQueryRepository(pool)
	ctx := context.Background()

	_, err := snapRepo.Save(ctx, playerA, date(2026, time.August, 24), testSummary(100), strPtr("Steve"))
	require.NoError(t, err)

	player, err := queryRepo.PlayerByName(ctx, "steve")
	require.NoError(t, err)
	require.NotNil(t, player)
	assert.Equal(t, playerA, player.UUID)

	player, err = queryRepo.PlayerByName(ctx, "Herobrine")
	require.NoError(t, err)
	assert.Nil(t, player)
}
