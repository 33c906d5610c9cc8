package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"minecraft-rewind/internal/model"
	"minecraft-rewind/internal/service"
)

// topBoardSize is the leaderboard depth shown by /top.
const topBoardSize = 5

// StatsHandler handles global server statistics commands.
type StatsHandler struct {
	rankingService *service.RankingService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(rankingService *service.RankingService) *StatsHandler {
	return &StatsHandler{rankingService: rankingService}
}

// HandleStats handles the /stats command.
// Displays the aggregated server-wide rewind.
func (h *StatsHandler) HandleStats(c tele.Context) error {
	ctx := context.Background()

	stats, err := h.rankingService.GlobalStats(ctx)
	if err != nil {
		return c.Reply("❌ Failed to load server stats, please try again later")
	}

	if stats.TotalPlayers == 0 {
		return c.Reply("📊 No snapshots in the database yet")
	}

	var b strings.Builder
	b.WriteString("📊 Server Rewind\n")
	b.WriteString("━━━━━━━━━━━━━━━\n")
	b.WriteString(fmt.Sprintf("👥 Players: %d\n", stats.TotalPlayers))
	if stats.LatestDate != nil {
		b.WriteString(fmt.Sprintf("📅 Latest snapshot: %s\n", stats.LatestDate.Format("2006-01-02")))
	}
	b.WriteString("\n")

	for _, key := range model.StatKeys() {
		b.WriteString(fmt.Sprintf("%s: %s\n", StatLabel(key), FormatNumber(stats.Totals[key])))
	}

	return c.Reply(b.String())
}

// HandleTop handles the /top command.
// Usage: /top [stat_key] - defaults to blocks mined.
func (h *StatsHandler) HandleTop(c tele.Context) error {
	ctx := context.Background()

	statKey := model.StatBlocksMined
	if args := c.Args(); len(args) > 0 {
		statKey = args[0]
	}

	if _, ok := statLabels[statKey]; !ok {
		return c.Reply(fmt.Sprintf(
			"❌ Unknown statistic %q\nAvailable: %s",
			statKey, strings.Join(model.StatKeys(), ", "),
		))
	}

	entries, err := h.rankingService.Leaderboard(ctx, statKey, topBoardSize)
	if err != nil {
		return c.Reply("❌ Failed to load leaderboard, please try again later")
	}

	if len(entries) == 0 {
		return c.Reply("📊 No data for this statistic yet")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏆 %s\n", StatLabel(statKey)))
	b.WriteString("━━━━━━━━━━━━━━━\n")

	medals := []string{"🥇", "🥈", "🥉"}
	for i, entry := range entries {
		rank := fmt.Sprintf("%d.", entry.Rank)
		if i < len(medals) {
			rank = medals[i]
		}
		b.WriteString(fmt.Sprintf("%s %s — %s\n", rank, entry.Name, FormatNumber(entry.Value)))
	}

	return c.Reply(b.String())
}
