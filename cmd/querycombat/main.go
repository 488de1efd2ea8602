// Package main is the entry point for Query Combat: Detroit Edition.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dandrade264/QueryCombat-Boardgame/internal/audio"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/config"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/game"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/gamedata"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/logging"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/telemetry"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/ui"
)

func main() {
	// Load .env file for local development
	envErr := godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		// Not fatal - env vars might be set directly
		logger.Info(".env file not loaded", zap.Error(envErr))
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("game exited with error", zap.Error(err))
		_ = logger.Sync()
		log.Fatalf("Game error: %v", err)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	if cfg.TelemetryEnabled {
		setupOTelEnv(cfg)
		shutdown, err := telemetry.Setup(ctx, "detroit")
		if err != nil {
			logger.Warn("telemetry setup failed, running without observability", zap.Error(err))
			telemetry.Disable()
		} else {
			defer func() {
				if err := shutdown(ctx); err != nil {
					logger.Warn("telemetry shutdown failed", zap.Error(err))
				}
			}()
		}
	} else {
		telemetry.Disable()
	}

	levels, err := gamedata.OpenLevelRegistry(cfg.LevelsFile)
	if err != nil {
		return fmt.Errorf("load levels: %w", err)
	}

	music := newMusic(ctx, cfg, logger)
	if music != nil {
		defer music.Stop()
	}

	screen, err := ui.NewScreen()
	if err != nil {
		return fmt.Errorf("open screen: %w", err)
	}

	deps := game.Deps{
		Screen: screen,
		Levels: levels,
		Logger: logger,
	}
	if music != nil {
		deps.Music = music
	}

	g, err := game.New(deps, game.Config{Delays: cfg.Delays})
	if err != nil {
		screen.Close()
		return err
	}

	return g.Run(ctx)
}

// newMusic builds the soundtrack player and starts it. A missing track or
// player is logged and the game carries on in silence.
func newMusic(ctx context.Context, cfg *config.Config, logger *zap.Logger) *audio.Player {
	if !cfg.MusicEnabled {
		return nil
	}

	runner, err := audio.ParseCommandLine(cfg.MusicPlayer)
	if err != nil {
		logger.Warn("music disabled", zap.Error(err))
		return nil
	}

	player := audio.NewPlayer(cfg.Music, runner, logger)
	if err := player.Start(ctx); err != nil {
		logger.Warn("continuing without music", zap.Error(err))
	}
	return player
}

// setupOTelEnv configures OTEL environment variables from our custom env vars.
func setupOTelEnv(cfg *config.Config) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://api.honeycomb.io")
	}

	// The .env file may hold an unexpanded variable reference, so build the
	// headers here
	if cfg.HoneycombAPIKey != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_HEADERS",
			fmt.Sprintf("x-honeycomb-team=%s,x-honeycomb-dataset=%s", cfg.HoneycombAPIKey, cfg.HoneycombDataset))
	}
}
