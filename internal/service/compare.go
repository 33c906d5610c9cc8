package service

import (
	"context"
	"math"
	"time"

	"minecraft-rewind/internal/model"
)

// snapshotSource is the read surface the comparator needs from the
// snapshot store.
type snapshotSource interface {
	Get(ctx context.Context, playerUUID string, extractionDate time.Time) (*model.Snapshot, error)
	GetLatest(ctx context.Context, playerUUID string, limit int) ([]*model.Snapshot, error)
}

// CompareService computes per-statistic deltas between two stored
// snapshots of the same player.
type CompareService struct {
	repo snapshotSource
}

// NewCompareService creates a new CompareService instance.
func NewCompareService(repo snapshotSource) *CompareService {
	return &CompareService{repo: repo}
}

// Compare builds a comparison between the snapshots at fromDate and
// toDate. Returns nil when either snapshot is missing; that is "nothing
// to compare", not an error. The dates are labeled literally: no ordering
// is enforced.
func (s *CompareService) Compare(ctx context.Context, playerUUID string, fromDate, toDate time.Time) (*model.Comparison, error) {
	from, err := s.repo.Get(ctx, playerUUID, fromDate)
	if err != nil {
		return nil, err
	}
	to, err := s.repo.Get(ctx, playerUUID, toDate)
	if err != nil {
		return nil, err
	}
	if from == nil || to == nil {
		return nil, nil
	}

	return buildComparison(from, to), nil
}

// CompareLastWeeks compares the two most recent of a player's last n
// snapshots. Returns nil when fewer than two exist.
func (s *CompareService) CompareLastWeeks(ctx context.Context, playerUUID string, weeks int) (*model.Comparison, error) {
	if weeks < 2 {
		weeks = 2
	}
	snapshots, err := s.repo.GetLatest(ctx, playerUUID, weeks)
	if err != nil {
		return nil, err
	}
	if len(snapshots) < 2 {
		return nil, nil
	}

	// snapshots are newest first; [1] is the older of the two.
	return buildComparison(snapshots[1], snapshots[0]), nil
}

// buildComparison computes the per-key diff for every statistic present in
// either snapshot. Percent change on a zero baseline is defined as 0, a
// deliberate business rule rather than a numerical error.
func buildComparison(from, to *model.Snapshot) *model.Comparison {
	comparison := &model.Comparison{
		PlayerUUID:   to.PlayerUUID,
		FromDate:     from.ExtractionDate,
		ToDate:       to.ExtractionDate,
		StatsDiff:    make(map[string]model.StatDiff),
		StatsFrom:    from.Stats,
		StatsTo:      to.Stats,
		TopItemsFrom: from.TopItems,
		TopItemsTo:   to.TopItems,
	}

	keys := make(map[string]struct{})
	for key := range from.Stats {
		keys[key] = struct{}{}
	}
	for key := range to.Stats {
		keys[key] = struct{}{}
	}

	for key := range keys {
		fromVal := from.Stats[key]
		toVal := to.Stats[key]
		diff := toVal - fromVal

		percent := 0.0
		if fromVal != 0 {
			percent = round1(diff / fromVal * 100)
		}

		comparison.StatsDiff[key] = model.StatDiff{
			From:    fromVal,
			To:      toVal,
			Diff:    round2(diff),
			Percent: percent,
		}
	}

	return comparison
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
