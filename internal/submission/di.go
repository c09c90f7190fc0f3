package submission

import (
	"github.com/dictamed/backend/internal/config"
	"github.com/dictamed/backend/internal/media"
	"github.com/dictamed/backend/internal/payload"
	"github.com/dictamed/backend/internal/stats"
	"github.com/dictamed/backend/internal/store"
	"github.com/dictamed/backend/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*payload.Builder, error) {
		cfg := do.MustInvoke[*config.Config](i)
		encoder := do.MustInvoke[*media.Encoder](i)
		return payload.NewBuilder(encoder, cfg.PhotoLimitBytes, cfg.ClientVersion), nil
	})
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		builder := do.MustInvoke[*payload.Builder](i)
		resolver := do.MustInvoke[*webhook.Resolver](i)
		sender := do.MustInvoke[webhook.Sender](i)
		recorder := do.MustInvoke[*stats.Recorder](i)
		st := do.MustInvoke[store.Store](i)
		return NewService(builder, resolver, sender, recorder, st), nil
	})
}
