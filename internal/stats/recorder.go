// Package stats maintains the per-user usage counters. Recording is
// best-effort telemetry: it never affects a submission's outcome.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/dictamed/backend/internal/cache"
	"github.com/dictamed/backend/internal/payload"
	"github.com/dictamed/backend/internal/store"
)

// Delta describes one submission's contribution to the counters.
type Delta struct {
	AudioCount           int
	AudioDurationSeconds float64
	TextLength           int
	PhotoCount           int
}

type Recorder struct {
	store store.UsageStatsRepository
	cache *cache.TTLCache[string, *store.UsageStats]
	now   func() time.Time
}

func NewRecorder(st store.UsageStatsRepository, ttl time.Duration) *Recorder {
	return &Recorder{
		store: st,
		cache: cache.New[string, *store.UsageStats](ttl, nil),
		now:   time.Now,
	}
}

// Record applies additive increments for one submission. The store
// composes concurrent increments atomically; a failure here is logged
// and swallowed. The local stats cache is always invalidated so a
// subsequent GetStats never serves data stale by our own write.
func (r *Recorder) Record(ctx context.Context, userID string, mode payload.Mode, d Delta) {
	if userID == "" {
		return
	}

	delta := store.StatsDelta{
		TotalSends:                1,
		TotalPhotos:               int64(d.PhotoCount),
		TotalAudioRecordings:      int64(d.AudioCount),
		TotalAudioDurationSeconds: d.AudioDurationSeconds,
		ActivityAt:                r.now(),
	}
	switch mode {
	case payload.ModeTest:
		delta.TestModeSends = 1
	case payload.ModeDMI:
		delta.DMIModeSends = 1
	default:
		delta.NormalModeSends = 1
	}
	if d.TextLength > 0 {
		delta.TotalTextSends = 1
		delta.TotalCharactersSent = int64(d.TextLength)
	}

	r.cache.Delete(userID)
	if err := r.store.IncrementUsageStats(ctx, userID, delta); err != nil {
		slog.Warn("failed to record usage statistics", "error", err, "user_id", userID, "mode", mode)
	}
}

// GetStats serves the user's aggregate counters through a read-through
// cache with the configured TTL.
func (r *Recorder) GetStats(ctx context.Context, userID string) (*store.UsageStats, error) {
	if cached, ok := r.cache.Get(userID); ok {
		return cached, nil
	}
	st, err := r.store.GetUsageStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(userID, st)
	return st, nil
}
