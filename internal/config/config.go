package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the daemon. Values come from an
// optional YAML file (REMINDD_CONFIG) with environment variables on top.
type Config struct {
	DatabaseURL      string        `yaml:"database_url"`
	ListenAddr       string        `yaml:"listen_addr"`
	MissedFirePolicy string        `yaml:"missed_fire_policy"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// Load reads configuration with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:      "remindd.db",
		ListenAddr:       "127.0.0.1:7420",
		MissedFirePolicy: "skip",
		ShutdownTimeout:  10 * time.Second,
	}

	if path := strings.TrimSpace(os.Getenv("REMINDD_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("REMINDD_DB")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("REMINDD_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("REMINDD_MISSED_FIRE_POLICY")); v != "" {
		cfg.MissedFirePolicy = v
	}
	if v := strings.TrimSpace(os.Getenv("REMINDD_TELEGRAM_TOKEN")); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("REMINDD_TELEGRAM_CHAT_ID")); v != "" {
		chatID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("REMINDD_TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Telegram.ChatID = chatID
	}

	switch cfg.MissedFirePolicy {
	case "skip", "catch_up":
	default:
		return cfg, fmt.Errorf("missed_fire_policy must be skip or catch_up, got %q", cfg.MissedFirePolicy)
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID == 0 {
		return cfg, fmt.Errorf("telegram chat_id is required when a token is set")
	}

	return cfg, nil
}
