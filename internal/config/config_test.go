package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Game.Amount != 10 || cfg.Events.Publisher != "gochannel" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
game:
  difficulty: hard
  amount: 5
  time_per_question: 20s
events:
  publisher: kafka
  brokers: ["kafka:9092"]
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected yaml port, got %q", cfg.Server.Port)
	}
	if cfg.Game.Difficulty != "hard" || cfg.Game.Amount != 5 {
		t.Fatalf("unexpected game config %+v", cfg.Game)
	}
	if cfg.SQLite.Path != "trivia.db" {
		t.Fatalf("expected untouched default sqlite path, got %q", cfg.SQLite.Path)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("expected env redis addr, got %q", cfg.Redis.Addr)
	}
	if len(cfg.Events.Brokers) != 2 || cfg.Events.Brokers[1] != "b:9092" {
		t.Fatalf("expected env brokers, got %v", cfg.Events.Brokers)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("nonsense", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %v", got)
	}
	if got := TTLDuration("45s", time.Minute); got != 45*time.Second {
		t.Fatalf("expected 45s, got %v", got)
	}
}
