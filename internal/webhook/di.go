package webhook

import (
	"github.com/dictamed/backend/internal/config"
	"github.com/dictamed/backend/internal/store"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Resolver, error) {
		cfg := do.MustInvoke[*config.Config](i)
		st := do.MustInvoke[store.Store](i)
		return NewResolver(st, DefaultsFromConfig(cfg), cfg.WebhookCacheTTL), nil
	})
}
