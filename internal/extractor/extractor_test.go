package extractor

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"minecraft-rewind/internal/model"
)

func TestValue_MissingPaths(t *testing.T) {
	full := RawStats{Stats: map[string]map[string]int64{
		"minecraft:custom": {"minecraft:deaths": 7},
	}}

	tests := []struct {
		name     string
		raw      RawStats
		category string
		key      string
		expected int64
	}{
		{"present", full, "minecraft:custom", "minecraft:deaths", 7},
		{"missing key", full, "minecraft:custom", "minecraft:mob_kills", 0},
		{"missing category", full, "minecraft:mined", "minecraft:stone", 0},
		{"missing stats map", RawStats{}, "minecraft:custom", "minecraft:deaths", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.raw.Value(tt.category, tt.key, 0))
		})
	}
}

func TestExtractSummary_EmptyDocument(t *testing.T) {
	summary := ExtractSummary(RawStats{})

	assert.Equal(t, float64(0), summary.PlaytimeHours)
	assert.Equal(t, float64(0), summary.DistanceKM)
	assert.Equal(t, int64(0), summary.MobKills)
	assert.Equal(t, int64(0), summary.BlocksMined)
	assert.Equal(t, int64(0), summary.BlocksCrafted)
	assert.Equal(t, int64(0), summary.Deaths)
	assert.Equal(t, int64(0), summary.ToolsBroken)

	require.Len(t, summary.TopItems, 4)
	for _, category := range model.TopCategories() {
		item := summary.TopItems[category]
		assert.Nil(t, item.Name)
		assert.Equal(t, int64(0), item.Count)
	}
}

func TestExtractSummary_PlaytimeConversion(t *testing.T) {
	tests := []struct {
		name     string
		ticks    int64
		expected float64
	}{
		{"zero", 0, 0},
		{"one hour", 72000, 1.0},
		{"half hour", 36000, 0.5},
		{"rounded to 2 decimals", 100000, 1.39},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := RawStats{Stats: map[string]map[string]int64{
				"minecraft:custom": {"minecraft:play_time": tt.ticks},
			}}
			assert.Equal(t, tt.expected, ExtractSummary(raw).PlaytimeHours)
		})
	}
}

func TestExtractSummary_DistanceAggregation(t *testing.T) {
	raw := RawStats{Stats: map[string]map[string]int64{
		"minecraft:custom": {
			"minecraft:walk_one_cm":   50000,
			"minecraft:sprint_one_cm": 50000,
		},
	}}

	assert.Equal(t, 1.0, ExtractSummary(raw).DistanceKM)
}

func TestExtractSummary_CategoryTotals(t *testing.T) {
	raw := RawStats{Stats: map[string]map[string]int64{
		"minecraft:mined": {
			"minecraft:stone": 100,
			"minecraft:dirt":  50,
		},
		"minecraft:crafted": {
			"minecraft:stick": 20,
		},
		"minecraft:broken": {
			"minecraft:wooden_pickaxe": 2,
			"minecraft:iron_shovel":    1,
		},
		"minecraft:custom": {
			"minecraft:deaths":    3,
			"minecraft:mob_kills": 42,
		},
	}}

	summary := ExtractSummary(raw)
	assert.Equal(t, int64(150), summary.BlocksMined)
	assert.Equal(t, int64(20), summary.BlocksCrafted)
	assert.Equal(t, int64(3), summary.ToolsBroken)
	assert.Equal(t, int64(3), summary.Deaths)
	assert.Equal(t, int64(42), summary.MobKills)
}

func TestExtractSummary_TopItems(t *testing.T) {
	raw := RawStats{Stats: map[string]map[string]int64{
		"minecraft:mined": {
			"minecraft:stone":    100,
			"minecraft:dirt":     50,
			"minecraft:diamond":  3,
		},
		"minecraft:killed": {
			"minecraft:zombie": 10,
		},
	}}

	summary := ExtractSummary(raw)

	mined := summary.TopItems[model.CategoryMined]
	require.NotNil(t, mined.Name)
	assert.Equal(t, "stone", *mined.Name) // namespace prefix stripped
	assert.Equal(t, int64(100), mined.Count)

	killed := summary.TopItems[model.CategoryKilled]
	require.NotNil(t, killed.Name)
	assert.Equal(t, "zombie", *killed.Name)
	assert.Equal(t, int64(10), killed.Count)

	// Absent categories yield a nil name and zero count.
	broken := summary.TopItems[model.CategoryBroken]
	assert.Nil(t, broken.Name)
	assert.Equal(t, int64(0), broken.Count)
}

func TestExtractSummary_TopItemTieBreak(t *testing.T) {
	// Equal counts resolve to the lexicographically smallest key.
	raw := RawStats{Stats: map[string]map[string]int64{
		"minecraft:mined": {
			"minecraft:stone":  5,
			"minecraft:dirt":   5,
			"minecraft:gravel": 5,
		},
	}}

	for i := 0; i < 20; i++ {
		item := ExtractSummary(raw).TopItems[model.CategoryMined]
		require.NotNil(t, item.Name)
		assert.Equal(t, "dirt", *item.Name)
		assert.Equal(t, int64(5), item.Count)
	}
}

func TestParseStats_Malformed(t *testing.T) {
	_, err := ParseStats([]byte("{not json"))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestReadStatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")
	content := `{"stats":{"minecraft:custom":{"minecraft:play_time":72000}},"DataVersion":3465}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	raw, err := ReadStatsFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(72000), raw.Value("minecraft:custom", "minecraft:play_time", 0))

	_, err = ReadStatsFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestPlayerUUIDFromFile(t *testing.T) {
	got, err := PlayerUUIDFromFile("/srv/world/stats/9e6d1337-4a2b-4c6e-8f00-0123456789ab.json")
	require.NoError(t, err)
	assert.Equal(t, "9e6d1337-4a2b-4c6e-8f00-0123456789ab", got)

	_, err = PlayerUUIDFromFile("/srv/world/stats/notauuid.json")
	assert.Error(t, err)
}

func TestLoadUsercache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "usercache.json")
	content := `[
		{"name": "Steve", "uuid": "9e6d1337-4a2b-4c6e-8f00-0123456789ab", "expiresOn": "2026-01-01"},
		{"name": "Alex", "uuid": "11111111-2222-3333-4444-555555555555", "expiresOn": "2026-01-01"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cache := LoadUsercache(path)
	assert.Equal(t, "Steve", cache["9e6d1337-4a2b-4c6e-8f00-0123456789ab"])
	assert.Equal(t, "Alex", cache["11111111-2222-3333-4444-555555555555"])

	// Missing and corrupt files degrade to an empty map.
	assert.Empty(t, LoadUsercache(filepath.Join(dir, "missing.json")))
	require.NoError(t, os.WriteFile(path, []byte("corrupt"), 0o644))
	assert.Empty(t, LoadUsercache(path))
}

// TestPlaytimeHoursProperty checks the tick conversion for arbitrary
// tick counts against a float64 reference computation.
func TestPlaytimeHoursProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ticks := rapid.Int64Range(0, 1<<40).Draw(t, "ticks")

		raw := RawStats{Stats: map[string]map[string]int64{
			"minecraft:custom": {"minecraft:play_time": ticks},
		}}

		expected := math.Round(float64(ticks)/72000*100) / 100
		got := ExtractSummary(raw).PlaytimeHours
		if got != expected {
			t.Fatalf("playtime for %d ticks: got %v, want %v", ticks, got, expected)
		}
	})
}

// TestTopItemProperty checks that the selected top item always carries the
// maximum count of its category.
func TestTopItemProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		counts := rapid.MapOfN(
			rapid.StringMatching(`minecraft:[a-z_]{1,12}`),
			rapid.Int64Range(0, 1_000_000),
			1, 30,
		).Draw(t, "counts")

		raw := RawStats{Stats: map[string]map[string]int64{"minecraft:mined": counts}}
		item := ExtractSummary(raw).TopItems[model.CategoryMined]

		if item.Name == nil {
			t.Fatalf("expected a top item for non-empty category")
		}
		for key, count := range counts {
			if count > item.Count {
				t.Fatalf("entry %s=%d beats selected top item count %d", key, count, item.Count)
			}
		}
	})
}
