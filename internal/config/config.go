package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	QuestionBank struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"question_bank"`
	Game struct {
		Difficulty      string `yaml:"difficulty"`
		Amount          int    `yaml:"amount"`
		Category        int    `yaml:"category"`
		TimePerQuestion string `yaml:"time_per_question"`
	} `yaml:"game"`
	Categories struct {
		TTL string `yaml:"ttl"`
	} `yaml:"categories"`
	Events struct {
		Publisher     string   `yaml:"publisher"`
		Brokers       []string `yaml:"brokers"`
		Topic         string   `yaml:"topic"`
		ConsumerGroup string   `yaml:"consumer_group"`
	} `yaml:"events"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path, then applies .env and environment overrides.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	// .env is optional
	_ = godotenv.Load()
	applyEnv(&cfg)
	return cfg, nil
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "10m"
	cfg.SQLite.Path = "trivia.db"
	cfg.QuestionBank.URL = "https://opentdb.com/"
	cfg.QuestionBank.Timeout = "10s"
	cfg.Game.Difficulty = "medium"
	cfg.Game.Amount = 10
	cfg.Game.TimePerQuestion = "30s"
	cfg.Categories.TTL = "1h"
	cfg.Events.Publisher = "gochannel"
	cfg.Events.Topic = "game.finished"
	cfg.Events.ConsumerGroup = "trivia-scores"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Postgres.URL = getEnv("POSTGRES_URL", cfg.Postgres.URL)
	cfg.SQLite.Path = getEnv("SQLITE_PATH", cfg.SQLite.Path)
	cfg.QuestionBank.URL = getEnv("QUESTION_BANK_URL", cfg.QuestionBank.URL)
	cfg.Events.Publisher = getEnv("EVENTS_PUBLISHER", cfg.Events.Publisher)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Events.Brokers = splitList(brokers)
	}
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
