// Package extractor parses Minecraft per-player statistics documents and
// reduces them to a normalized weekly summary.
package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"minecraft-rewind/internal/model"
)

// ErrMalformedInput indicates an unreadable or unparseable stats document.
// A malformed file only fails the extraction of that single player.
var ErrMalformedInput = errors.New("malformed stats document")

// Minecraft runs at 20 ticks/second, so 1 hour = 20 * 60 * 60 ticks.
const ticksPerHour = 72000

// Distances are recorded in centimeters.
const cmPerKM = 100000

const namespacePrefix = "minecraft:"

// Stat categories inside the raw document.
const (
	categoryCustom  = "minecraft:custom"
	categoryMined   = "minecraft:mined"
	categoryKilled  = "minecraft:killed"
	categoryBroken  = "minecraft:broken"
	categoryCrafted = "minecraft:crafted"
)

// Named counters inside the custom category.
const (
	counterPlayTime = "minecraft:play_time"
	counterDeaths   = "minecraft:deaths"
	counterMobKills = "minecraft:mob_kills"
)

// distanceCounters are the eleven movement-mode counters summed into the
// total distance, each stored in centimeters.
var distanceCounters = []string{
	"minecraft:walk_one_cm",
	"minecraft:sprint_one_cm",
	"minecraft:swim_one_cm",
	"minecraft:boat_one_cm",
	"minecraft:horse_one_cm",
	"minecraft:fly_one_cm",
	"minecraft:climb_one_cm",
	"minecraft:crouch_one_cm",
	"minecraft:fall_one_cm",
	"minecraft:walk_on_water_one_cm",
	"minecraft:walk_under_water_one_cm",
}

// RawStats is the externally-produced statistics document: namespaced
// counters keyed by category, then by item or action identifier.
type RawStats struct {
	Stats map[string]map[string]int64 `json:"stats"`
}

// Category returns the counter map for a category. A missing category
// yields a nil map, which is safe to index and range over.
func (r RawStats) Category(name string) map[string]int64 {
	if r.Stats == nil {
		return nil
	}
	return r.Stats[name]
}

// Value returns the counter at category/key, or def when any link of the
// path is missing.
func (r RawStats) Value(category, key string, def int64) int64 {
	m := r.Category(category)
	if m == nil {
		return def
	}
	v, ok := m[key]
	if !ok {
		return def
	}
	return v
}

// ParseStats decodes a raw stats document.
func ParseStats(data []byte) (RawStats, error) {
	var raw RawStats
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawStats{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return raw, nil
}

// ReadStatsFile reads and decodes a player's stats JSON file.
func ReadStatsFile(path string) (RawStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawStats{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return ParseStats(data)
}

// PlayerUUIDFromFile extracts and validates the player UUID encoded in a
// stats filename (uuid.json).
func PlayerUUIDFromFile(path string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id, err := uuid.Parse(stem)
	if err != nil {
		return "", fmt.Errorf("invalid player uuid %q: %w", stem, err)
	}
	return id.String(), nil
}

// ExtractSummary reduces a raw stats document to the weekly summary.
// It is total over malformed input: any missing nested path degrades to
// zero counters and empty top items rather than failing.
func ExtractSummary(raw RawStats) model.Summary {
	summary := model.Summary{
		PlaytimeHours: playtimeHours(raw),
		DistanceKM:    distanceKM(raw),
		MobKills:      raw.Value(categoryCustom, counterMobKills, 0),
		BlocksMined:   categoryTotal(raw, categoryMined),
		BlocksCrafted: categoryTotal(raw, categoryCrafted),
		Deaths:        raw.Value(categoryCustom, counterDeaths, 0),
		ToolsBroken:   categoryTotal(raw, categoryBroken),
	}

	summary.TopItems = map[string]model.TopItem{
		model.CategoryMined:   topItem(raw, categoryMined),
		model.CategoryKilled:  topItem(raw, categoryKilled),
		model.CategoryBroken:  topItem(raw, categoryBroken),
		model.CategoryCrafted: topItem(raw, categoryCrafted),
	}

	return summary
}

// playtimeHours converts the play time tick counter to hours.
func playtimeHours(raw RawStats) float64 {
	ticks := raw.Value(categoryCustom, counterPlayTime, 0)
	return round2(float64(ticks) / ticksPerHour)
}

// distanceKM sums the distance counters and converts cm to km.
func distanceKM(raw RawStats) float64 {
	var totalCM int64
	for _, key := range distanceCounters {
		totalCM += raw.Value(categoryCustom, key, 0)
	}
	return round2(float64(totalCM) / cmPerKM)
}

// categoryTotal sums all counters under a category.
func categoryTotal(raw RawStats, category string) int64 {
	var total int64
	for _, v := range raw.Category(category) {
		total += v
	}
	return total
}

// topItem selects the highest-count entry in a category, with the
// namespace prefix stripped from the name. Ties are broken by the
// lexicographically smallest raw key, so the result is deterministic.
func topItem(raw RawStats, category string) model.TopItem {
	m := raw.Category(category)
	if len(m) == 0 {
		return model.TopItem{Name: nil, Count: 0}
	}

	var bestKey string
	var bestCount int64
	first := true
	for key, count := range m {
		if first || count > bestCount || (count == bestCount && key < bestKey) {
			bestKey = key
			bestCount = count
			first = false
		}
	}

	name := strings.TrimPrefix(bestKey, namespacePrefix)
	return model.TopItem{Name: &name, Count: bestCount}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
