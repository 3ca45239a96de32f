package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// Admin password bcrypt hash, copied into settings when none is stored yet
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	// Transport
	WebhookURL         string `env:"WEBHOOK_URL"`
	WebhookSecret      string `env:"WEBHOOK_SECRET"`
	HTTPAddr           string `env:"HTTP_ADDR" envDefault:":3000"`
	CronSecret         string `env:"CRON_SECRET"`
	DropPendingUpdates bool   `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`

	// Scheduling
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	Location      string        `env:"LOCATION" envDefault:"UTC"`

	// Outbound throttling
	SendRatePerSecond float64 `env:"SEND_RATE_PER_SECOND" envDefault:"25"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	SentryDSN string `env:"SENTRY_DSN"`

	// Telegram logging
	LogTelegramChatID int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError     int   `env:"LOG_TOPIC_ERROR"`
	LogTopicAdmin     int   `env:"LOG_TOPIC_ADMIN"`
	LogTopicLottery   int   `env:"LOG_TOPIC_LOTTERY"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}
	if cfg.SendRatePerSecond <= 0 {
		return nil, fmt.Errorf("SEND_RATE_PER_SECOND must be positive, got %v", cfg.SendRatePerSecond)
	}
	return cfg, nil
}

// TimeLocation resolves Location, used when printing end times.
func (c *Config) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) WebhookEnabled() bool {
	return c.WebhookURL != ""
}
