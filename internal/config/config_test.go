package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "LISTEN_ADDR", "DATABASE_PATH", "GIN_MODE", "LOG_LEVEL", "LOG_FORMAT", "TIMEZONE", "WRITE_RATE_PER_MINUTE", "WRITE_RATE_BURST"} {
		t.Setenv(key, "")
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.Port != "8080" || cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen config: %#v", cfg)
	}
	if cfg.DatabasePath != "data/habitlog.db" {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.WriteRatePerMinute != 120 || cfg.WriteRateBurst != 30 {
		t.Fatalf("unexpected rate config: %d/%d", cfg.WriteRatePerMinute, cfg.WriteRateBurst)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "PORT=9090\nDATABASE_PATH=/tmp/from-file.db\nTIMEZONE=Asia/Shanghai\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", envFile)
	os.Unsetenv("PORT")
	os.Unsetenv("TIMEZONE")
	t.Setenv("DATABASE_PATH", "/tmp/from-env.db")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port from env file, got %q", cfg.Port)
	}
	if cfg.DatabasePath != "/tmp/from-env.db" {
		t.Fatalf("expected env var to win, got %q", cfg.DatabasePath)
	}
	if loc, err := cfg.Location(); err != nil || loc.String() != "Asia/Shanghai" {
		t.Fatalf("unexpected location %v (%v)", loc, err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := AppConfig{Port: "abc", DatabasePath: " ", Timezone: "Nowhere/City", WriteRatePerMinute: 0, WriteRateBurst: 1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}
