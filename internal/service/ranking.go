package service

import (
	"context"

	"minecraft-rewind/internal/model"
	"minecraft-rewind/internal/repository"
)

// rankLookupLimit is the leaderboard depth scanned when resolving a
// single player's ranks. Generous enough to cover any realistic server.
const rankLookupLimit = 1000

// RankingService computes cross-player rankings from each player's most
// recent snapshot.
type RankingService struct {
	queries *repository.QueryRepository
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(queries *repository.QueryRepository) *RankingService {
	return &RankingService{queries: queries}
}

// Leaderboard returns the ranked top players for one statistic.
func (s *RankingService) Leaderboard(ctx context.Context, statKey string, limit int) ([]*model.LeaderboardEntry, error) {
	return s.queries.Leaderboard(ctx, statKey, limit)
}

// AllLeaderboards returns a leaderboard for each of the fixed statistic
// keys, each bounded by perBoard entries.
func (s *RankingService) AllLeaderboards(ctx context.Context, perBoard int) (map[string][]*model.LeaderboardEntry, error) {
	boards := make(map[string][]*model.LeaderboardEntry, len(model.StatKeys()))
	for _, key := range model.StatKeys() {
		entries, err := s.queries.Leaderboard(ctx, key, perBoard)
		if err != nil {
			return nil, err
		}
		boards[key] = entries
	}
	return boards, nil
}

// PlayerRanks returns a player's rank for every statistic key. A player
// absent from a leaderboard gets rank 0 (unranked).
func (s *RankingService) PlayerRanks(ctx context.Context, playerUUID string) (map[string]int, error) {
	ranks := make(map[string]int, len(model.StatKeys()))
	for _, key := range model.StatKeys() {
		entries, err := s.queries.Leaderboard(ctx, key, rankLookupLimit)
		if err != nil {
			return nil, err
		}

		ranks[key] = rankIn(entries, playerUUID)
	}
	return ranks, nil
}

// rankIn finds a player's rank in a leaderboard, or 0 when absent.
func rankIn(entries []*model.LeaderboardEntry, playerUUID string) int {
	for _, entry := range entries {
		if entry.UUID == playerUUID {
			return entry.Rank
		}
	}
	return 0
}

// GlobalStats aggregates the latest snapshot of every player.
func (s *RankingService) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	return s.queries.GlobalStats(ctx)
}

// PlayerHistory returns a player's stat history, newest first.
func (s *RankingService) PlayerHistory(ctx context.Context, playerUUID string, limit int) ([]*model.HistoryEntry, error) {
	return s.queries.PlayerHistory(ctx, playerUUID, limit)
}

// PlayerByName resolves a player by display name, or nil when unknown.
func (s *RankingService) PlayerByName(ctx context.Context, name string) (*model.Player, error) {
	return s.queries.PlayerByName(ctx, name)
}

// NamedPlayers lists players with a known display name, sorted by name.
func (s *RankingService) NamedPlayers(ctx context.Context) ([]*model.Player, error) {
	return s.queries.NamedPlayers(ctx)
}
