// Package model defines the data models for the Minecraft Rewind system.
package model

import "time"

// Stat keys persisted for every snapshot.
const (
	StatPlaytimeHours = "playtime_hours"
	StatDistanceKM    = "distance_km"
	StatMobKills      = "mob_kills"
	StatBlocksMined   = "blocks_mined"
	StatBlocksCrafted = "blocks_crafted"
	StatDeaths        = "deaths"
	StatToolsBroken   = "tools_broken"
)

// Top item categories persisted for every snapshot.
const (
	CategoryMined   = "mined"
	CategoryKilled  = "killed"
	CategoryBroken  = "broken"
	CategoryCrafted = "crafted"
)

// StatKeys returns the fixed set of statistic keys in display order.
func StatKeys() []string {
	return []string{
		StatPlaytimeHours,
		StatDistanceKM,
		StatMobKills,
		StatBlocksMined,
		StatBlocksCrafted,
		StatDeaths,
		StatToolsBroken,
	}
}

// TopCategories returns the fixed set of top item categories.
func TopCategories() []string {
	return []string{CategoryMined, CategoryKilled, CategoryBroken, CategoryCrafted}
}

// TopItem is the highest-count entry of a counter category.
// Name is nil when the category is empty for the week.
type TopItem struct {
	Name  *string `json:"name"`
	Count int64   `json:"count"`
}

// Summary is the normalized weekly summary extracted from a raw stats file.
type Summary struct {
	PlaytimeHours float64 `json:"playtime_hours"`
	DistanceKM    float64 `json:"distance_km"`
	MobKills      int64   `json:"mob_kills"`
	BlocksMined   int64   `json:"blocks_mined"`
	BlocksCrafted int64   `json:"blocks_crafted"`
	Deaths        int64   `json:"deaths"`
	ToolsBroken   int64   `json:"tools_broken"`

	TopItems map[string]TopItem `json:"top_items"`
}

// Stats returns the scalar statistics as a key/value map, the shape
// they are persisted and compared in.
func (s *Summary) Stats() map[string]float64 {
	return map[string]float64{
		StatPlaytimeHours: s.PlaytimeHours,
		StatDistanceKM:    s.DistanceKM,
		StatMobKills:      float64(s.MobKills),
		StatBlocksMined:   float64(s.BlocksMined),
		StatBlocksCrafted: float64(s.BlocksCrafted),
		StatDeaths:        float64(s.Deaths),
		StatToolsBroken:   float64(s.ToolsBroken),
	}
}

// Snapshot is one immutable per-player, per-date capture of aggregated
// statistics. Uniquely identified by (PlayerUUID, ExtractionDate).
type Snapshot struct {
	ID             int64              `db:"id" json:"id"`
	PlayerUUID     string             `db:"player_uuid" json:"player_uuid"`
	PlayerName     *string            `db:"player_name" json:"player_name"`
	ExtractionDate time.Time          `db:"extraction_date" json:"extraction_date"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	Stats          map[string]float64 `json:"stats"`
	TopItems       map[string]TopItem `json:"top_items"`
}

// Player is a distinct player known to the store.
type Player struct {
	UUID string  `json:"uuid"`
	Name *string `json:"name"`
}

// DisplayName returns the player name, falling back to a shortened UUID.
func (p *Player) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	if len(p.UUID) >= 8 {
		return p.UUID[:8]
	}
	return p.UUID
}

// StatDiff is the per-key evolution between two snapshots.
type StatDiff struct {
	From    float64 `json:"from"`
	To      float64 `json:"to"`
	Diff    float64 `json:"diff"`
	Percent float64 `json:"percent"`
}

// Comparison is the result of comparing two snapshots of the same player.
type Comparison struct {
	PlayerUUID   string              `json:"player_uuid"`
	FromDate     time.Time           `json:"from_date"`
	ToDate       time.Time           `json:"to_date"`
	StatsDiff    map[string]StatDiff `json:"stats_diff"`
	StatsFrom    map[string]float64  `json:"stats_from"`
	StatsTo      map[string]float64  `json:"stats_to"`
	TopItemsFrom map[string]TopItem  `json:"top_items_from"`
	TopItemsTo   map[string]TopItem  `json:"top_items_to"`
}

// LeaderboardEntry is one row of a per-statistic leaderboard, computed
// from the player's most recent snapshot only.
type LeaderboardEntry struct {
	Rank  int       `json:"rank"`
	UUID  string    `json:"uuid"`
	Name  string    `json:"name"`
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
}

// GlobalStats aggregates the latest snapshot of every player.
type GlobalStats struct {
	LatestDate   *time.Time         `json:"latest_date"`
	TotalPlayers int                `json:"total_players"`
	Totals       map[string]float64 `json:"totals"`
}

// HistoryEntry is one point of a player's stat history.
type HistoryEntry struct {
	Date  time.Time          `json:"date"`
	Stats map[string]float64 `json:"stats"`
}
