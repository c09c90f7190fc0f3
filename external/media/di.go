package media

import (
	"github.com/dictamed/backend/internal/config"
	"github.com/dictamed/backend/internal/media"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (media.Compressor, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewWAVCompressor(cfg.TargetSampleRate), nil
	})
	do.Provide(injector, func(i do.Injector) (*media.Encoder, error) {
		cfg := do.MustInvoke[*config.Config](i)
		compressor := do.MustInvoke[media.Compressor](i)
		return media.NewEncoder(compressor, cfg.AudioSoftLimitBytes, cfg.PayloadHardLimit), nil
	})
}
