package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_TOKEN", "DATABASE_URL", "FALLBACK_DIR", "FLAGS_FILE",
		"FLAGS_REFRESH_MINUTES", "REPORT_INTERVAL_HOURS", "REPORT_TIME",
		"REPORT_CHAT_ID", "ALLOWED_USER_ID",
	} {
		t.Setenv(key, "")
	}
	// Run from an empty directory so no .env is picked up.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", " token ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TelegramToken != "token" {
		t.Errorf("TelegramToken = %q", cfg.TelegramToken)
	}
	if cfg.DatabaseURL != "data/todo_tabs.db" || cfg.FallbackDir != "data/fallback" || cfg.FlagsFile != "flags.yaml" {
		t.Errorf("paths = %q %q %q", cfg.DatabaseURL, cfg.FallbackDir, cfg.FlagsFile)
	}
	if cfg.ReportInterval != 5*time.Hour || cfg.FlagsRefresh != 15*time.Minute {
		t.Errorf("intervals = %v %v", cfg.ReportInterval, cfg.FlagsRefresh)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "t")
	t.Setenv("REPORT_INTERVAL_HOURS", "2")
	t.Setenv("FLAGS_REFRESH_MINUTES", "0.5")
	t.Setenv("REPORT_CHAT_ID", "-100123")
	t.Setenv("REPORT_TIME", "08:00")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReportInterval != 2*time.Hour {
		t.Errorf("ReportInterval = %v", cfg.ReportInterval)
	}
	if cfg.FlagsRefresh != 30*time.Second {
		t.Errorf("FlagsRefresh = %v", cfg.FlagsRefresh)
	}
	if cfg.ReportChatID != -100123 || cfg.ReportTime != "08:00" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Error("Load() without token error = nil")
	}

	t.Setenv("TELEGRAM_TOKEN", "t")
	t.Setenv("ALLOWED_USER_ID", "me")
	if _, err := Load(); err == nil {
		t.Error("Load() with bad ALLOWED_USER_ID error = nil")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// clearEnv set the variables to "", which godotenv treats as already
	// defined, so drop the ones the file provides.
	os.Unsetenv("TELEGRAM_TOKEN")
	os.Unsetenv("FALLBACK_DIR")
	t.Cleanup(func() {
		os.Unsetenv("TELEGRAM_TOKEN")
		os.Unsetenv("FALLBACK_DIR")
	})

	if err := os.WriteFile(filepath.Join(".", ".env"), []byte("TELEGRAM_TOKEN=from-file\nFALLBACK_DIR=/tmp/fb\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TelegramToken != "from-file" || cfg.FallbackDir != "/tmp/fb" {
		t.Errorf("cfg = %+v, want values from .env", cfg)
	}
}
