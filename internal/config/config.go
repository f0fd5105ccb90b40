// Package config loads the daemon configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the environment-sourced daemon configuration. Variable names
// match the original deployment.
type Config struct {
	// Telegram application credentials shared by all account sessions.
	APIID   int    `env:"API_ID" envDefault:"16623"`
	APIHash string `env:"API_HASH" envDefault:"8c9dbfe58437d1739540f5d53c72ae4b"`

	// Admin bot.
	BotToken string  `env:"BOT_TOKEN"`
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Service-message forwarding.
	ForwardTo int64 `env:"FORWARD_TO_ID"`
	ServiceID int64 `env:"TELEGRAM_SERVICE_ID" envDefault:"777000"`

	DBPath      string `env:"DB_PATH" envDefault:"data.db"`
	SessionsDir string `env:"SESSIONS_DIR" envDefault:"sessions"`

	// Scheduler knobs.
	PollInterval         time.Duration `env:"POLL_INTERVAL" envDefault:"30s"`
	GroupIntervalMinutes int           `env:"GROUP_INTERVAL_MINUTES" envDefault:"30"`
	MaxGroupsPerAccount  int           `env:"MAX_GROUPS_PER_ACCOUNT" envDefault:"450"`
	MaxAccountDays       int           `env:"MAX_ACCOUNT_DAYS" envDefault:"10"`

	// DigestCron schedules the daily stats digest to admins (cron spec).
	DigestCron string `env:"DIGEST_CRON" envDefault:"0 9 * * *"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Cooldown is the minimum interval between two provisioning actions for one
// account.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.GroupIntervalMinutes) * time.Minute
}

// MaxAge bounds account lifetime, measured from first activity.
func (c Config) MaxAge() time.Duration {
	return time.Duration(c.MaxAccountDays) * 24 * time.Hour
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	if c.APIID <= 0 {
		return errors.New("API_ID must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}
	if c.GroupIntervalMinutes < 0 || c.MaxGroupsPerAccount <= 0 || c.MaxAccountDays <= 0 {
		return errors.New("group limits must be positive")
	}
	return nil
}
