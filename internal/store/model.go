package store

import "time"

// WebhookBinding is the per-user destination override managed by the
// admin console. One binding per user; an inactive binding is treated
// as absent by the resolver.
type WebhookBinding struct {
	UserID     string
	URL        string
	IsActive   bool
	Notes      string
	UpdatedBy  string
	LastUsed   *time.Time
	UsageCount int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UsageStats holds the per-user aggregate counters. Counters are only
// ever moved by atomic increments, never overwritten.
type UsageStats struct {
	UserID                    string
	TotalSends                int64
	NormalModeSends           int64
	TestModeSends             int64
	DMIModeSends              int64
	TotalPhotos               int64
	TotalAudioRecordings      int64
	TotalAudioDurationSeconds float64
	TotalTextSends            int64
	TotalCharactersSent       int64
	FirstUseAt                *time.Time
	LastActivityAt            *time.Time
}

// User is the directory entry the admin console lists. Refreshed on
// every submission.
type User struct {
	ID          string
	Email       string
	DisplayName string
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}
