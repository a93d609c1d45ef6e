// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/filecrate/filecrate/pkg/blob"
	"github.com/filecrate/filecrate/pkg/db"
	"github.com/filecrate/filecrate/pkg/logger"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"ADDR" envDefault:":8080"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// AdminSecret authenticates the project administration surface.
	AdminSecret string `env:"ADMIN_SECRET,required"`

	// PresignExpiry bounds the lifetime of presigned upload and access
	// URLs.
	PresignExpiry time.Duration `env:"PRESIGN_EXPIRY" envDefault:"1h"`

	// SyncSchedule is the cron expression for the periodic
	// reconciliation sweep across all projects.
	SyncSchedule string `env:"SYNC_SCHEDULE" envDefault:"0 3 * * *"`

	// ClamdAddr is the clamd daemon address for malware scanning.
	ClamdAddr string `env:"CLAMD_ADDR" envDefault:"tcp://127.0.0.1:3310"`

	// FFmpegPath overrides the ffmpeg binary used for transcoding.
	FFmpegPath string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`

	// RedisURL enables the API key cache when set.
	RedisURL string `env:"REDIS_URL"`

	// AuthCacheTTL bounds how long authenticated API keys are cached.
	AuthCacheTTL time.Duration `env:"AUTH_CACHE_TTL" envDefault:"5m"`

	DB     db.Config
	Blob   blob.Config
	Sentry logger.SentryConfig
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return &cfg, nil
}
