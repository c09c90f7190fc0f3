package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dictamed/backend/internal/cache"
	"github.com/dictamed/backend/internal/payload"
	"github.com/dictamed/backend/internal/store"
	"golang.org/x/sync/errgroup"
)

// Source reports where a resolved URL came from.
type Source string

const (
	SourceBinding Source = "binding"
	SourceDefault Source = "default"
)

const touchTimeout = 5 * time.Second

type cacheKey struct {
	userID string
	mode   payload.Mode
}

// Resolver maps a (user, mode) pair onto a destination URL: the user's
// active binding when one exists, else the static default for the
// mode. Store-backed resolutions are cached per (user, mode); negative
// results never are, so a freshly assigned binding takes effect on the
// next call rather than after a TTL.
type Resolver struct {
	bindings store.WebhookBindingRepository
	defaults Defaults
	cache    *cache.TTLCache[cacheKey, string]
	now      func() time.Time
}

func NewResolver(bindings store.WebhookBindingRepository, defaults Defaults, ttl time.Duration) *Resolver {
	return &Resolver{
		bindings: bindings,
		defaults: defaults,
		cache:    cache.New[cacheKey, string](ttl, nil),
		now:      time.Now,
	}
}

// Resolve never fails: every degraded path falls back to the mode's
// default URL and is logged, not surfaced.
func (r *Resolver) Resolve(ctx context.Context, userID string, mode payload.Mode) (string, Source) {
	if userID == "" {
		return r.defaults.For(mode), SourceDefault
	}

	key := cacheKey{userID: userID, mode: mode}
	if cached, ok := r.cache.Get(key); ok {
		return cached, SourceBinding
	}

	binding, err := r.bindings.GetWebhookBinding(ctx, userID)
	if err != nil {
		slog.Error("webhook binding lookup failed, using default", "error", err, "user_id", userID, "mode", mode)
		return r.defaults.For(mode), SourceDefault
	}
	if binding == nil || !binding.IsActive {
		slog.Info("no active webhook binding, using default", "user_id", userID, "mode", mode)
		return r.defaults.For(mode), SourceDefault
	}
	if err := ValidateURL(binding.URL); err != nil {
		slog.Warn("stored webhook URL is invalid, using default", "error", err, "user_id", userID, "url", binding.URL)
		return r.defaults.For(mode), SourceDefault
	}

	r.cache.Set(key, binding.URL)
	go r.touch(userID)
	return binding.URL, SourceBinding
}

// Invalidate drops every cached entry for the user, across all modes.
// Called after an admin edits or removes a binding.
func (r *Resolver) Invalidate(userID string) {
	r.cache.DeleteFunc(func(k cacheKey) bool { return k.userID == userID })
}

// Preload warms the cache for every mode at once, so the submission
// after a binding change does not pay the store round-trip.
func (r *Resolver) Preload(ctx context.Context, userID string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, mode := range payload.AllModes() {
		mode := mode
		g.Go(func() error {
			r.Resolve(ctx, userID, mode)
			return nil
		})
	}
	return g.Wait()
}

// touch bumps the binding's usage counter. Fire-and-forget: resolution
// has already returned and failures are only logged.
func (r *Resolver) touch(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
	defer cancel()
	if err := r.bindings.TouchWebhookBinding(ctx, userID, r.now()); err != nil {
		slog.Warn("failed to record webhook usage", "error", err, "user_id", userID)
	}
}

// ValidateURL accepts absolute https URLs. A path without "webhook" in
// it is suspicious for an n8n endpoint but not rejected.
func ValidateURL(raw string) error {
	if strings.ContainsAny(raw, " <>\"") {
		return fmt.Errorf("URL contains forbidden characters")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("URL does not parse: %w", err)
	}
	if !u.IsAbs() {
		return fmt.Errorf("URL must be absolute")
	}
	if u.Scheme != "https" {
		return fmt.Errorf("URL must use https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	if !strings.Contains(u.Path, "webhook") {
		slog.Warn("webhook URL path does not mention webhook", "url", raw)
	}
	return nil
}
