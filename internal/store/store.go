package store

import (
	"context"
	"time"
)

type PutWebhookBindingInput struct {
	UserID    string
	URL       string
	IsActive  bool
	Notes     string
	UpdatedBy string
}

// StatsDelta is one submission's worth of counter increments. Every
// field is additive; the store applies the whole delta atomically.
type StatsDelta struct {
	TotalSends                int64
	NormalModeSends           int64
	TestModeSends             int64
	DMIModeSends              int64
	TotalPhotos               int64
	TotalAudioRecordings      int64
	TotalAudioDurationSeconds float64
	TotalTextSends            int64
	TotalCharactersSent       int64
	ActivityAt                time.Time
}

type UpsertUserInput struct {
	ID          string
	Email       string
	DisplayName string
	SeenAt      time.Time
}

type WebhookBindingRepository interface {
	// GetWebhookBinding returns (nil, nil) when no binding exists.
	GetWebhookBinding(ctx context.Context, userID string) (*WebhookBinding, error)
	PutWebhookBinding(ctx context.Context, input PutWebhookBindingInput) (*WebhookBinding, error)
	DeleteWebhookBinding(ctx context.Context, userID string) error
	ListWebhookBindings(ctx context.Context) ([]WebhookBinding, error)
	// TouchWebhookBinding bumps usage_count and last_used atomically.
	TouchWebhookBinding(ctx context.Context, userID string, usedAt time.Time) error
}

type UsageStatsRepository interface {
	IncrementUsageStats(ctx context.Context, userID string, delta StatsDelta) error
	// GetUsageStats returns zeroed stats (not an error) for an unknown user.
	GetUsageStats(ctx context.Context, userID string) (*UsageStats, error)
}

type UserRepository interface {
	UpsertUser(ctx context.Context, input UpsertUserInput) error
	ListUsers(ctx context.Context) ([]User, error)
}

type Store interface {
	WebhookBindingRepository
	UsageStatsRepository
	UserRepository
}
