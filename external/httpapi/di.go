package httpapi

import (
	"github.com/dictamed/backend/internal/config"
	"github.com/dictamed/backend/internal/stats"
	"github.com/dictamed/backend/internal/store"
	"github.com/dictamed/backend/internal/submission"
	"github.com/dictamed/backend/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		svc := do.MustInvoke[*submission.Service](i)
		recorder := do.MustInvoke[*stats.Recorder](i)
		st := do.MustInvoke[store.Store](i)
		resolver := do.MustInvoke[*webhook.Resolver](i)
		sender := do.MustInvoke[webhook.Sender](i)
		return NewHandler(cfg, svc, recorder, st, resolver, sender), nil
	})
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		handler := do.MustInvoke[*Handler](i)
		return NewServer(cfg, handler), nil
	})
}
