package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the app.
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	FallbackDir    string
	FlagsFile      string
	FlagsRefresh   time.Duration
	ReportInterval time.Duration
	ReportTime     string
	ReportChatID   int64
	AllowedUserID  int64
}

// Load reads configuration from environment variables with sane defaults.
// Values from a .env file in the working directory are used when the
// variable is not already set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		TelegramToken:  env("TELEGRAM_TOKEN"),
		DatabaseURL:    env("DATABASE_URL"),
		FallbackDir:    env("FALLBACK_DIR"),
		FlagsFile:      env("FLAGS_FILE"),
		FlagsRefresh:   parsePositive(env("FLAGS_REFRESH_MINUTES"), time.Minute),
		ReportInterval: parsePositive(env("REPORT_INTERVAL_HOURS"), time.Hour),
		ReportTime:     env("REPORT_TIME"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "data/todo_tabs.db"
	}
	if cfg.FallbackDir == "" {
		cfg.FallbackDir = "data/fallback"
	}
	if cfg.FlagsFile == "" {
		cfg.FlagsFile = "flags.yaml"
	}
	if cfg.FlagsRefresh == 0 {
		cfg.FlagsRefresh = 15 * time.Minute
	}
	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	var err error
	if cfg.ReportChatID, err = parseID("REPORT_CHAT_ID"); err != nil {
		return cfg, err
	}
	if cfg.AllowedUserID, err = parseID("ALLOWED_USER_ID"); err != nil {
		return cfg, err
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parsePositive(raw string, unit time.Duration) time.Duration {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n * float64(unit))
}

func parseID(key string) (int64, error) {
	raw := env(key)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return id, nil
}
