// Package service provides business logic implementations.
package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"minecraft-rewind/internal/extractor"
	"minecraft-rewind/internal/model"
	"minecraft-rewind/internal/repository"
)

// exportLimit bounds the number of snapshots included in an export.
const exportLimit = 100

// ExtractionReport tallies a batch extraction run.
type ExtractionReport struct {
	Succeeded int
	Failed    int
}

// SnapshotService runs the extraction pipeline over a stats directory and
// serves snapshot reads and exports.
type SnapshotService struct {
	repo          *repository.SnapshotRepository
	usercachePath string
}

// NewSnapshotService creates a new SnapshotService instance.
func NewSnapshotService(repo *repository.SnapshotRepository, usercachePath string) *SnapshotService {
	return &SnapshotService{
		repo:          repo,
		usercachePath: usercachePath,
	}
}

// RunExtraction extracts and saves a snapshot for every stats file in
// statsDir. Per-player failures (malformed files, duplicate snapshots) are
// logged and tallied without aborting the rest of the batch. With dryRun
// set, summaries are extracted and logged but nothing is saved.
func (s *SnapshotService) RunExtraction(ctx context.Context, statsDir string, extractionDate time.Time, dryRun bool) (*ExtractionReport, error) {
	files, err := filepath.Glob(filepath.Join(statsDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan stats directory: %w", err)
	}

	report := &ExtractionReport{}
	if len(files) == 0 {
		log.Warn().Str("dir", statsDir).Msg("No stats files found")
		return report, nil
	}

	usercache := extractor.LoadUsercache(s.usercachePath)
	if len(usercache) > 0 {
		log.Info().Int("players", len(usercache)).Msg("Loaded usercache")
	}

	log.Info().
		Str("dir", statsDir).
		Str("date", extractionDate.Format("2006-01-02")).
		Int("files", len(files)).
		Bool("dry_run", dryRun).
		Msg("Creating snapshots")

	for _, path := range files {
		playerUUID, err := extractor.PlayerUUIDFromFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Skipping stats file")
			report.Failed++
			continue
		}

		var playerName *string
		if name, ok := usercache[playerUUID]; ok {
			playerName = &name
		}

		raw, err := extractor.ReadStatsFile(path)
		if err != nil {
			log.Error().Err(err).Str("player", playerUUID).Msg("Failed to read stats")
			report.Failed++
			continue
		}

		summary := extractor.ExtractSummary(raw)

		if dryRun {
			log.Info().
				Str("player", displayName(playerUUID, playerName)).
				Float64("playtime_hours", summary.PlaytimeHours).
				Float64("distance_km", summary.DistanceKM).
				Int64("blocks_mined", summary.BlocksMined).
				Msg("[DRY RUN] Would save snapshot")
			report.Succeeded++
			continue
		}

		snapshotID, err := s.repo.Save(ctx, playerUUID, extractionDate, &summary, playerName)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateSnapshot) {
				log.Warn().Str("player", playerUUID).Msg("Snapshot already exists for this date")
			} else {
				log.Error().Err(err).Str("player", playerUUID).Msg("Failed to save snapshot")
			}
			report.Failed++
			continue
		}

		log.Info().
			Int64("snapshot_id", snapshotID).
			Str("player", displayName(playerUUID, playerName)).
			Msg("Saved snapshot")
		report.Succeeded++
	}

	log.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("Extraction completed")

	return report, nil
}

// Get returns one snapshot, or nil when absent.
func (s *SnapshotService) Get(ctx context.Context, playerUUID string, extractionDate time.Time) (*model.Snapshot, error) {
	return s.repo.Get(ctx, playerUUID, extractionDate)
}

// GetLatest returns a player's most recent snapshots, newest first.
func (s *SnapshotService) GetLatest(ctx context.Context, playerUUID string, limit int) ([]*model.Snapshot, error) {
	return s.repo.GetLatest(ctx, playerUUID, limit)
}

// ListPlayers returns all known players, most recently active first.
func (s *SnapshotService) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	return s.repo.ListPlayers(ctx)
}

// Delete removes a snapshot and its child rows. Admin operation.
func (s *SnapshotService) Delete(ctx context.Context, playerUUID string, extractionDate time.Time) (bool, error) {
	return s.repo.Delete(ctx, playerUUID, extractionDate)
}

// Export writes a player's snapshots to w in the given format
// ("json" or "csv").
func (s *SnapshotService) Export(ctx context.Context, playerUUID, format string, w io.Writer) error {
	snapshots, err := s.repo.GetLatest(ctx, playerUUID, exportLimit)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("no snapshots found for player %s", playerUUID)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshots)
	case "csv":
		return writeCSV(w, snapshots)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// writeCSV flattens snapshots into one row per extraction date.
func writeCSV(w io.Writer, snapshots []*model.Snapshot) error {
	cw := csv.NewWriter(w)

	header := []string{"player_uuid", "extraction_date"}
	header = append(header, model.StatKeys()...)
	categories := model.TopCategories()
	sort.Strings(categories)
	for _, category := range categories {
		header = append(header, "top_"+category, "top_"+category+"_count")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, snap := range snapshots {
		row := []string{snap.PlayerUUID, snap.ExtractionDate.Format("2006-01-02")}
		for _, key := range model.StatKeys() {
			row = append(row, strconv.FormatFloat(snap.Stats[key], 'f', -1, 64))
		}
		for _, category := range categories {
			item := snap.TopItems[category]
			name := ""
			if item.Name != nil {
				name = *item.Name
			}
			row = append(row, name, strconv.FormatInt(item.Count, 10))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// displayName formats a player for logging.
func displayName(playerUUID string, playerName *string) string {
	if playerName != nil && *playerName != "" {
		return fmt.Sprintf("%s (%s)", *playerName, playerUUID)
	}
	return playerUUID
}
