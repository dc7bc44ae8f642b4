package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Telegram (optional — without a token the process runs in mgmt-only mode)
	TelegramBotToken    string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramPollTimeout int    `envconfig:"TELEGRAM_POLL_TIMEOUT" default:"30"` // seconds

	// Storage
	DBPath string `envconfig:"DB_PATH" default:"sprintbot.db"`

	// Identity cache capacity (entries)
	AuthCacheSize int `envconfig:"AUTH_CACHE_SIZE" default:"4096"`

	// Management API
	MgmtListenAddr string `envconfig:"MGMT_LISTEN_ADDR" default:":8090"`
	MgmtAPIKey     string `envconfig:"MGMT_API_KEY"`
}

// TelegramEnabled returns true if a bot token is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
