// Package main is the entry point for the Minecraft Rewind CLI.
//
// Usage:
//
//	rewind snapshot [-stats-dir PATH] [-date YYYY-MM-DD] [-dry-run]
//	rewind compare -player UUID [-weeks N | -from YYYY-MM-DD -to YYYY-MM-DD]
//	rewind export -player UUID [-format json|csv]
//	rewind delete -player UUID -date YYYY-MM-DD
//	rewind list
//	rewind serve
//	rewind bot
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"minecraft-rewind/internal/bot"
	"minecraft-rewind/internal/config"
	"minecraft-rewind/internal/handler"
	"minecraft-rewind/internal/model"
	"minecraft-rewind/internal/pkg/db"
	"minecraft-rewind/internal/repository"
	"minecraft-rewind/internal/service"
	"minecraft-rewind/internal/web"
)

const usage = `Minecraft Rewind - Weekly Statistics System

Commands:
  snapshot   Create a snapshot of all player stats
  compare    Compare the last weeks of a player
  export     Export player data as JSON or CSV
  delete     Delete one snapshot of a player
  list       List all players with snapshots
  serve      Run the dashboard API server
  bot        Run the Telegram bot
`

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	app, err := newApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}

	command, args := os.Args[1], os.Args[2:]

	var code int
	switch command {
	case "snapshot":
		code = app.cmdSnapshot(args)
	case "compare":
		code = app.cmdCompare(args)
	case "export":
		code = app.cmdExport(args)
	case "delete":
		code = app.cmdDelete(args)
	case "list":
		code = app.cmdList(args)
	case "serve":
		code = app.cmdServe(args)
	case "bot":
		code = app.cmdBot(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		code = 2
	}

	app.close()
	os.Exit(code)
}

// app holds the composed services shared by all commands.
type app struct {
	cfg  *config.Config
	pool *db.Pool

	snapshots *service.SnapshotService
	compare   *service.CompareService
	rankings  *service.RankingService
}

func newApp(cfg *config.Config) (*app, error) {
	ctx := context.Background()

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := repository.Migrate(ctx, pool.Pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	snapRepo := repository.NewSnapshotRepository(pool.Pool)
	queryRepo := repository.NewQueryRepository(pool.Pool)

	return &app{
		cfg:       cfg,
		pool:      pool,
		snapshots: service.NewSnapshotService(snapRepo, cfg.Server.UsercachePath),
		compare:   service.NewCompareService(snapRepo),
		rankings:  service.NewRankingService(queryRepo),
	}, nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

// cmdSnapshot creates snapshots for every player stats file.
func (a *app) cmdSnapshot(args []string) int {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	statsDir := fs.String("stats-dir", a.cfg.Server.StatsDir, "path to the Minecraft stats directory")
	dateStr := fs.String("date", "", "extraction date (YYYY-MM-DD), defaults to today")
	dryRun := fs.Bool("dry-run", false, "parse and display stats without saving")
	_ = fs.Parse(args)

	extractionDate := time.Now().UTC().Truncate(24 * time.Hour)
	if *dateStr != "" {
		parsed, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			log.Error().Str("date", *dateStr).Msg("Invalid date format, use YYYY-MM-DD")
			return 1
		}
		extractionDate = parsed
	}

	report, err := a.snapshots.RunExtraction(context.Background(), *statsDir, extractionDate, *dryRun)
	if err != nil {
		log.Error().Err(err).Msg("Extraction run failed")
		return 1
	}
	if report.Failed > 0 {
		return 1
	}
	return 0
}

// cmdCompare prints an evolution report, either between two explicit
// extraction dates or over the player's most recent weeks.
func (a *app) cmdCompare(args []string) int {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	player := fs.String("player", "", "player UUID")
	weeks := fs.Int("weeks", 2, "number of weeks to compare")
	fromStr := fs.String("from", "", "baseline extraction date (YYYY-MM-DD)")
	toStr := fs.String("to", "", "target extraction date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	if *player == "" {
		log.Error().Msg("-player is required")
		return 2
	}
	if (*fromStr == "") != (*toStr == "") {
		log.Error().Msg("-from and -to must be given together")
		return 2
	}

	var comparison *model.Comparison
	var err error
	if *fromStr != "" {
		var from, to time.Time
		if from, err = time.Parse("2006-01-02", *fromStr); err != nil {
			log.Error().Str("from", *fromStr).Msg("Invalid date format, use YYYY-MM-DD")
			return 2
		}
		if to, err = time.Parse("2006-01-02", *toStr); err != nil {
			log.Error().Str("to", *toStr).Msg("Invalid date format, use YYYY-MM-DD")
			return 2
		}
		comparison, err = a.compare.Compare(context.Background(), *player, from, to)
	} else {
		comparison, err = a.compare.CompareLastWeeks(context.Background(), *player, *weeks)
	}
	if err != nil {
		log.Error().Err(err).Msg("Comparison failed")
		return 1
	}
	if comparison == nil {
		log.Warn().Str("player", *player).Msg("No snapshots to compare for this player and period")
		return 1
	}

	fmt.Println("============================================================")
	fmt.Println("📊 Minecraft Rewind - Comparison Report")
	fmt.Println("============================================================")
	fmt.Printf("Player: %s\n", comparison.PlayerUUID)
	fmt.Printf("Period: %s → %s\n",
		comparison.FromDate.Format("2006-01-02"),
		comparison.ToDate.Format("2006-01-02"))
	fmt.Println("============================================================")
	fmt.Println()
	fmt.Println("📈 Statistics Evolution:")
	fmt.Println()

	for _, key := range model.StatKeys() {
		diff, ok := comparison.StatsDiff[key]
		if !ok {
			continue
		}
		sign := ""
		if diff.Diff > 0 {
			sign = "+"
		}
		fmt.Printf("  %s:\n", handler.StatLabel(key))
		fmt.Printf("    %s → %s (%s%s)\n\n",
			handler.FormatNumber(diff.From),
			handler.FormatNumber(diff.To),
			sign,
			handler.FormatNumber(diff.Diff))
	}

	fmt.Println("🏆 Top Items (current week):")
	fmt.Println()
	for _, category := range model.TopCategories() {
		item := comparison.TopItemsTo[category]
		if item.Name == nil {
			continue
		}
		fmt.Printf("  Top %s: %s (%dx)\n", category, handler.FormatItemName(item.Name), item.Count)
	}

	return 0
}

// cmdExport writes a player's snapshot history to stdout.
func (a *app) cmdExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	player := fs.String("player", "", "player UUID")
	format := fs.String("format", "json", "output format (json or csv)")
	_ = fs.Parse(args)

	if *player == "" {
		log.Error().Msg("-player is required")
		return 2
	}

	if err := a.snapshots.Export(context.Background(), *player, *format, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Export failed")
		return 1
	}
	return 0
}

// cmdDelete removes one snapshot; its stat and top-item rows cascade.
func (a *app) cmdDelete(args []string) int {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	player := fs.String("player", "", "player UUID")
	dateStr := fs.String("date", "", "extraction date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	if *player == "" || *dateStr == "" {
		log.Error().Msg("-player and -date are required")
		return 2
	}
	extractionDate, err := time.Parse("2006-01-02", *dateStr)
	if err != nil {
		log.Error().Str("date", *dateStr).Msg("Invalid date format, use YYYY-MM-DD")
		return 2
	}

	deleted, err := a.snapshots.Delete(context.Background(), *player, extractionDate)
	if err != nil {
		log.Error().Err(err).Msg("Delete failed")
		return 1
	}
	if !deleted {
		log.Warn().
			Str("player", *player).
			Str("date", *dateStr).
			Msg("No snapshot found for this player and date")
		return 1
	}

	log.Info().
		Str("player", *player).
		Str("date", *dateStr).
		Msg("Snapshot deleted")
	return 0
}

// cmdList prints all players with snapshots.
func (a *app) cmdList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()
	players, err := a.snapshots.ListPlayers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list players")
		return 1
	}

	if len(players) == 0 {
		fmt.Println("No players found in database.")
		return 0
	}

	fmt.Printf("📋 Players with snapshots: %d\n\n", len(players))
	for _, player := range players {
		fmt.Printf("  • %s\n", player.DisplayName())
		fmt.Printf("    UUID: %s\n", player.UUID)

		snapshots, err := a.snapshots.GetLatest(ctx, player.UUID, 1)
		if err == nil && len(snapshots) > 0 {
			fmt.Printf("    Last extraction: %s\n", snapshots[0].ExtractionDate.Format("2006-01-02"))
		}
		fmt.Println()
	}

	return 0
}

// cmdServe runs the dashboard API server until interrupted.
func (a *app) cmdServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	_ = fs.Parse(args)

	server := web.NewServer(&a.cfg.Web, a.pool, a.snapshots, a.rankings, a.compare)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Server failed")
			return 1
		}
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
			return 1
		}
	}

	log.Info().Msg("Server stopped gracefully")
	return 0
}

// cmdBot runs the Telegram bot until interrupted.
func (a *app) cmdBot(args []string) int {
	fs := flag.NewFlagSet("bot", flag.ExitOnError)
	_ = fs.Parse(args)

	telegramBot, err := bot.New(&bot.Dependencies{
		Config:          a.cfg,
		SnapshotService: a.snapshots,
		RankingService:  a.rankings,
		CompareService:  a.compare,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create bot")
		return 1
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
	return 0
}
