// Package bot provides the Telegram bot initialization and handler
// registration for rewind reports.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"minecraft-rewind/internal/config"
	"minecraft-rewind/internal/handler"
	"minecraft-rewind/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	statsHandler    *handler.StatsHandler
	playerHandler   *handler.PlayerHandler
	snapshotHandler *handler.SnapshotHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config          *config.Config
	SnapshotService *service.SnapshotService
	RankingService  *service.RankingService
	CompareService  *service.CompareService
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	b.statsHandler = handler.NewStatsHandler(deps.RankingService)
	b.playerHandler = handler.NewPlayerHandler(deps.SnapshotService, deps.RankingService, deps.CompareService)
	b.snapshotHandler = handler.NewSnapshotHandler(deps.Config, deps.SnapshotService)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(RecoveryMiddleware())
}

// registerHandlers registers all command handlers.
func (b *Bot) registerHandlers() {
	// Global rewind
	b.bot.Handle("/stats", b.statsHandler.HandleStats)
	b.bot.Handle("/top", b.statsHandler.HandleTop)

	// Personal rewind
	b.bot.Handle("/player", b.playerHandler.HandlePlayer)
	b.bot.Handle("/rewind", b.playerHandler.HandleRewind)
	b.bot.Handle("/players", b.playerHandler.HandlePlayers)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/snapshot", b.snapshotHandler.HandleSnapshot)
}

// Start begins polling for updates (blocking).
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
