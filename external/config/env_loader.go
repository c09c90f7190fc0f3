package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/dictamed/backend/internal/config"
)

type envConfig struct {
	Env        string `env:"ENV" envDefault:"production"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	WebhookNormalURL string `env:"WEBHOOK_NORMAL_URL,required"`
	WebhookTestURL   string `env:"WEBHOOK_TEST_URL,required"`
	WebhookDMIURL    string `env:"WEBHOOK_DMI_URL,required"`

	ClientVersion string `env:"CLIENT_VERSION" envDefault:"2.0"`

	AdminEmail string `env:"ADMIN_EMAIL,required"`
	AdminToken string `env:"ADMIN_TOKEN,required"`

	SubmitMaxAttempts    int           `env:"SUBMIT_MAX_ATTEMPTS" envDefault:"3"`
	SubmitRetryBaseDelay time.Duration `env:"SUBMIT_RETRY_BASE_DELAY" envDefault:"1s"`

	AudioSoftLimitMB   int64 `env:"AUDIO_SOFT_LIMIT_MB" envDefault:"5"`
	PayloadHardLimitMB int64 `env:"PAYLOAD_HARD_LIMIT_MB" envDefault:"25"`
	PhotoLimitMB       int64 `env:"PHOTO_LIMIT_MB" envDefault:"20"`
	TargetSampleRate   int   `env:"AUDIO_TARGET_SAMPLE_RATE" envDefault:"16000"`

	WebhookCacheTTL time.Duration `env:"WEBHOOK_CACHE_TTL" envDefault:"5m"`
	StatsCacheTTL   time.Duration `env:"STATS_CACHE_TTL" envDefault:"5m"`

	SubmitRatePerMinute int `env:"SUBMIT_RATE_PER_MINUTE" envDefault:"30"`
	SubmitRateBurst     int `env:"SUBMIT_RATE_BURST" envDefault:"10"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                  raw.Env,
		ListenAddr:           raw.ListenAddr,
		DatabaseURL:          raw.DatabaseURL,
		WebhookNormalURL:     raw.WebhookNormalURL,
		WebhookTestURL:       raw.WebhookTestURL,
		WebhookDMIURL:        raw.WebhookDMIURL,
		ClientVersion:        raw.ClientVersion,
		AdminEmail:           raw.AdminEmail,
		AdminToken:           raw.AdminToken,
		SubmitMaxAttempts:    raw.SubmitMaxAttempts,
		SubmitRetryBaseDelay: raw.SubmitRetryBaseDelay,
		AudioSoftLimitBytes:  raw.AudioSoftLimitMB << 20,
		PayloadHardLimit:     raw.PayloadHardLimitMB << 20,
		PhotoLimitBytes:      raw.PhotoLimitMB << 20,
		TargetSampleRate:     raw.TargetSampleRate,
		WebhookCacheTTL:      raw.WebhookCacheTTL,
		StatsCacheTTL:        raw.StatsCacheTTL,
		SubmitRatePerMinute:  raw.SubmitRatePerMinute,
		SubmitRateBurst:      raw.SubmitRateBurst,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
