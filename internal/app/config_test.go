package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("RECIPEVAULT_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("LOG_MODE", "")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "")

	cfg, err := LoadConfig(logger.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.LogMode != "development" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadConfigFileSeedsEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "PORT: \"9090\"\nKV_STORE_MODE: sqlite\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RECIPEVAULT_CONFIG", path)
	t.Setenv("PORT", "")
	t.Setenv("KV_STORE_MODE", "")

	cfg, err := LoadConfig(logger.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if got := os.Getenv("KV_STORE_MODE"); got != "sqlite" {
		t.Fatalf("KV_STORE_MODE = %q", got)
	}
}

func TestLoadConfigEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("PORT: \"9090\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RECIPEVAULT_CONFIG", path)
	t.Setenv("PORT", "7070")

	cfg, err := LoadConfig(logger.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("Port = %q", cfg.Port)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("RECIPEVAULT_CONFIG", "/nonexistent/config.yaml")
	if _, err := LoadConfig(logger.NewNop()); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
