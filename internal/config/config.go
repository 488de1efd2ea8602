// Package config reads application settings from the environment.
// main loads a .env file first, so values may come from either.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dandrade264/QueryCombat-Boardgame/internal/audio"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/logging"
	"github.com/dandrade264/QueryCombat-Boardgame/internal/progression"
)

// DefaultMusicPlayer is the command line used to play the soundtrack.
const DefaultMusicPlayer = "ffplay -nodisp -autoexit -loglevel quiet -volume {volume} {file}"

// Config holds every tunable of the application.
type Config struct {
	Delays     progression.Delays
	LevelsFile string // Empty uses the embedded table

	MusicEnabled bool
	MusicPlayer  string
	Music        audio.Config

	Log logging.Config

	TelemetryEnabled bool
	HoneycombAPIKey  string
	HoneycombDataset string
}

// FromEnv builds the configuration from environment variables, falling back
// to defaults for anything unset. Malformed values are errors naming the
// offending variable.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Music: audio.DefaultConfig(),
	}
	var err error

	if cfg.Delays.Correct, err = getDuration("QC_CORRECT_DELAY", progression.DefaultDelays.Correct); err != nil {
		return nil, err
	}
	if cfg.Delays.Incorrect, err = getDuration("QC_INCORRECT_DELAY", progression.DefaultDelays.Incorrect); err != nil {
		return nil, err
	}

	cfg.LevelsFile = os.Getenv("QC_LEVELS_FILE")

	if cfg.MusicEnabled, err = getBool("QC_MUSIC_ENABLED", true); err != nil {
		return nil, err
	}
	cfg.MusicPlayer = getEnv("QC_MUSIC_PLAYER", DefaultMusicPlayer)
	cfg.Music.AssetDir = getEnv("QC_ASSET_DIR", cfg.Music.AssetDir)
	cfg.Music.Track = getEnv("QC_MUSIC_TRACK", cfg.Music.Track)
	if cfg.Music.Volume, err = getFloat("QC_MUSIC_VOLUME", cfg.Music.Volume); err != nil {
		return nil, err
	}
	if cfg.Music.Volume < 0 || cfg.Music.Volume > 1 {
		return nil, fmt.Errorf("QC_MUSIC_VOLUME must be between 0 and 1, got %v", cfg.Music.Volume)
	}

	cfg.Log = logging.Config{
		File:  getEnv("QC_LOG_FILE", "querycombat.log"),
		Level: getEnv("QC_LOG_LEVEL", "info"),
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("QC_LOG_LEVEL: %w", err)
	}

	if cfg.TelemetryEnabled, err = getBool("QC_TELEMETRY_ENABLED", true); err != nil {
		return nil, err
	}
	cfg.HoneycombAPIKey = os.Getenv("HONEYCOMB_QUERYCOMBAT_API_KEY")
	cfg.HoneycombDataset = getEnv("HONEYCOMB_QUERYCOMBAT_DATASET", "querycombat")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", key, value)
	}
	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
