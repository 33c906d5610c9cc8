package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"minecraft-rewind/internal/model"
	"minecraft-rewind/internal/service"
)

// PlayerHandler handles per-player rewind commands.
type PlayerHandler struct {
	snapshotService *service.SnapshotService
	rankingService  *service.RankingService
	compareService  *service.CompareService
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(snapshotService *service.SnapshotService, rankingService *service.RankingService, compareService *service.CompareService) *PlayerHandler {
	return &PlayerHandler{
		snapshotService: snapshotService,
		rankingService:  rankingService,
		compareService:  compareService,
	}
}

// HandlePlayer handles the /player command.
// Usage: /player <name> - shows the player's latest snapshot and ranks.
func (h *PlayerHandler) HandlePlayer(c tele.Context) error {
	ctx := context.Background()

	args := c.Args()
	if len(args) == 0 {
		return c.Reply("Usage: /player <name>")
	}
	name := args[0]

	player, err := h.rankingService.PlayerByName(ctx, name)
	if err != nil {
		return c.Reply("❌ Failed to look up player, please try again later")
	}
	if player == nil {
		return c.Reply(fmt.Sprintf("❌ Player %q not found", name))
	}

	snapshots, err := h.snapshotService.GetLatest(ctx, player.UUID, 1)
	if err != nil || len(snapshots) == 0 {
		return c.Reply(fmt.Sprintf("❌ No snapshots for player %q", name))
	}
	snap := snapshots[0]

	ranks, err := h.rankingService.PlayerRanks(ctx, player.UUID)
	if err != nil {
		return c.Reply("❌ Failed to load ranks, please try again later")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎮 Rewind — %s\n", player.DisplayName()))
	b.WriteString(fmt.Sprintf("📅 %s\n", snap.ExtractionDate.Format("2006-01-02")))
	b.WriteString("━━━━━━━━━━━━━━━\n")

	for _, key := range model.StatKeys() {
		line := fmt.Sprintf("%s: %s", StatLabel(key), FormatNumber(snap.Stats[key]))
		if rank := ranks[key]; rank > 0 {
			line += fmt.Sprintf(" (#%d)", rank)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n🏆 Top items:\n")
	for _, category := range model.TopCategories() {
		item := snap.TopItems[category]
		if item.Name == nil {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: %s (%sx)\n",
			category, FormatItemName(item.Name), FormatNumber(float64(item.Count))))
	}

	return c.Reply(b.String())
}

// HandleRewind handles the /rewind command.
// Usage: /rewind <name> - compares the player's two most recent weeks.
func (h *PlayerHandler) HandleRewind(c tele.Context) error {
	ctx := context.Background()

	args := c.Args()
	if len(args) == 0 {
		return c.Reply("Usage: /rewind <name>")
	}
	name := args[0]

	player, err := h.rankingService.PlayerByName(ctx, name)
	if err != nil {
		return c.Reply("❌ Failed to look up player, please try again later")
	}
	if player == nil {
		return c.Reply(fmt.Sprintf("❌ Player %q not found", name))
	}

	comparison, err := h.compareService.CompareLastWeeks(ctx, player.UUID, 2)
	if err != nil {
		return c.Reply("❌ Failed to compare snapshots, please try again later")
	}
	if comparison == nil {
		return c.Reply(fmt.Sprintf("❌ Not enough snapshots for %q (need at least 2)", name))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 Weekly Rewind — %s\n", player.DisplayName()))
	b.WriteString(fmt.Sprintf("📅 %s → %s\n",
		comparison.FromDate.Format("2006-01-02"),
		comparison.ToDate.Format("2006-01-02")))
	b.WriteString("━━━━━━━━━━━━━━━\n")

	for _, key := range model.StatKeys() {
		diff, ok := comparison.StatsDiff[key]
		if !ok {
			continue
		}
		sign := ""
		if diff.Diff > 0 {
			sign = "+"
		}
		b.WriteString(fmt.Sprintf("%s: %s → %s (%s%s)\n",
			StatLabel(key),
			FormatNumber(diff.From),
			FormatNumber(diff.To),
			sign,
			FormatNumber(diff.Diff)))
	}

	return c.Reply(b.String())
}

// HandlePlayers handles the /players command, listing known players.
func (h *PlayerHandler) HandlePlayers(c tele.Context) error {
	ctx := context.Background()

	players, err := h.snapshotService.ListPlayers(ctx)
	if err != nil {
		return c.Reply("❌ Failed to list players, please try again later")
	}

	if len(players) == 0 {
		return c.Reply("📋 No players in the database yet")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 Players with snapshots: %d\n", len(players)))
	b.WriteString("━━━━━━━━━━━━━━━\n")
	for _, player := range players {
		b.WriteString("• " + player.DisplayName() + "\n")
	}

	return c.Reply(b.String())
}
