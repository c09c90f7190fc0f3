package webhook

import (
	"github.com/dictamed/backend/internal/config"
	"github.com/dictamed/backend/internal/payload"
)

// Defaults is the static mode-to-URL table shipped with the
// application; the fallback when a user has no active binding.
type Defaults map[payload.Mode]string

func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{
		payload.ModeNormal: cfg.WebhookNormalURL,
		payload.ModeTest:   cfg.WebhookTestURL,
		payload.ModeDMI:    cfg.WebhookDMIURL,
	}
}

// For returns the default URL for mode, falling back to the normal
// endpoint for an unknown mode.
func (d Defaults) For(mode payload.Mode) string {
	if url, ok := d[mode]; ok {
		return url
	}
	return d[payload.ModeNormal]
}
