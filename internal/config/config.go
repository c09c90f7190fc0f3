package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Env        string
	ListenAddr string

	DatabaseURL string

	WebhookNormalURL string
	WebhookTestURL   string
	WebhookDMIURL    string

	ClientVersion string

	AdminEmail string
	AdminToken string

	SubmitMaxAttempts    int
	SubmitRetryBaseDelay time.Duration

	AudioSoftLimitBytes int64
	PayloadHardLimit    int64
	PhotoLimitBytes     int64
	TargetSampleRate    int

	WebhookCacheTTL time.Duration
	StatsCacheTTL   time.Duration

	SubmitRatePerMinute int
	SubmitRateBurst     int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	for _, wh := range []requiredEnvField{
		{name: "WEBHOOK_NORMAL_URL", value: c.WebhookNormalURL},
		{name: "WEBHOOK_TEST_URL", value: c.WebhookTestURL},
		{name: "WEBHOOK_DMI_URL", value: c.WebhookDMIURL},
	} {
		u, err := url.Parse(wh.value)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("%s is not an absolute URL", wh.name)
		}
		if u.Scheme != "https" {
			return fmt.Errorf("%s must use https, got %q", wh.name, u.Scheme)
		}
	}
	if c.SubmitMaxAttempts <= 0 {
		return fmt.Errorf("SUBMIT_MAX_ATTEMPTS must be positive, got %d", c.SubmitMaxAttempts)
	}
	if c.SubmitRetryBaseDelay <= 0 {
		return fmt.Errorf("SUBMIT_RETRY_BASE_DELAY must be positive, got %s", c.SubmitRetryBaseDelay)
	}
	if c.TargetSampleRate <= 0 {
		return fmt.Errorf("AUDIO_TARGET_SAMPLE_RATE must be positive, got %d", c.TargetSampleRate)
	}
	if c.AudioSoftLimitBytes <= 0 || c.PayloadHardLimit <= 0 || c.PhotoLimitBytes <= 0 {
		return fmt.Errorf("size limits must be positive")
	}
	if c.AudioSoftLimitBytes >= c.PayloadHardLimit {
		return fmt.Errorf("audio soft limit (%d bytes) must be below the payload hard limit (%d bytes)", c.AudioSoftLimitBytes, c.PayloadHardLimit)
	}
	if c.WebhookCacheTTL <= 0 || c.StatsCacheTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.SubmitRatePerMinute <= 0 || c.SubmitRateBurst <= 0 {
		return fmt.Errorf("submission rate limits must be positive")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "LISTEN_ADDR", value: c.ListenAddr},
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "WEBHOOK_NORMAL_URL", value: c.WebhookNormalURL},
		{name: "WEBHOOK_TEST_URL", value: c.WebhookTestURL},
		{name: "WEBHOOK_DMI_URL", value: c.WebhookDMIURL},
		{name: "CLIENT_VERSION", value: c.ClientVersion},
		{name: "ADMIN_EMAIL", value: c.AdminEmail},
		{name: "ADMIN_TOKEN", value: c.AdminToken},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
