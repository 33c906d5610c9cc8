package handler

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"minecraft-rewind/internal/config"
	"minecraft-rewind/internal/service"
)

// SnapshotHandler handles admin snapshot commands.
type SnapshotHandler struct {
	cfg             *config.Config
	snapshotService *service.SnapshotService
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(cfg *config.Config, snapshotService *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{
		cfg:             cfg,
		snapshotService: snapshotService,
	}
}

// HandleSnapshot handles the /snapshot command (admin only, enforced by
// middleware). Triggers an extraction run for today over the configured
// stats directory.
func (h *SnapshotHandler) HandleSnapshot(c tele.Context) error {
	ctx := context.Background()

	if err := c.Reply("⏳ Creating snapshots..."); err != nil {
		return err
	}

	report, err := h.snapshotService.RunExtraction(ctx, h.cfg.Server.StatsDir, time.Now().UTC().Truncate(24*time.Hour), false)
	if err != nil {
		return c.Reply(fmt.Sprintf("❌ Extraction failed: %v", err))
	}

	return c.Reply(fmt.Sprintf(
		"✅ Snapshot run completed\n%d succeeded, %d failed",
		report.Succeeded, report.Failed,
	))
}
