package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("server address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.JWT.Expiration != 12*time.Hour {
		t.Errorf("jwt expiration = %v, want 12h", cfg.JWT.Expiration)
	}
	if cfg.Jobs.ExpiryCron != "5 0 * * *" {
		t.Errorf("expiry cron = %q", cfg.Jobs.ExpiryCron)
	}
	if cfg.App.DefaultTrainerLabel != "TFG Trainer" {
		t.Errorf("default trainer label = %q", cfg.App.DefaultTrainerLabel)
	}
	if cfg.RabbitMQ.Exchange != "gym.events" {
		t.Errorf("exchange = %q", cfg.RabbitMQ.Exchange)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := []byte("server:\n  address: \":9090\"\njwt:\n  secret: filesecret\n  expiration: 30m\nredis:\n  login_limit: 3\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "envsecret")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("server address = %q, want :9090", cfg.Server.Address)
	}
	if cfg.JWT.Secret != "envsecret" {
		t.Errorf("jwt secret = %q, want env override", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiration != 30*time.Minute {
		t.Errorf("jwt expiration = %v, want 30m", cfg.JWT.Expiration)
	}
	if cfg.Redis.LoginLimit != 3 {
		t.Errorf("login limit = %d, want 3", cfg.Redis.LoginLimit)
	}
}

func TestAppLocation(t *testing.T) {
	if got := (AppConfig{Timezone: "Not/AZone"}).Location(); got != time.UTC {
		t.Errorf("invalid timezone should fall back to UTC, got %v", got)
	}
	if got := (AppConfig{}).Location(); got != time.UTC {
		t.Errorf("empty timezone should be UTC, got %v", got)
	}
}
