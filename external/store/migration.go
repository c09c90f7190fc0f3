package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS webhook_bindings (
		user_id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		notes TEXT NOT NULL DEFAULT '',
		updated_by TEXT NOT NULL DEFAULT '',
		last_used TIMESTAMPTZ,
		usage_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS usage_stats (
		user_id TEXT PRIMARY KEY,
		total_sends BIGINT NOT NULL DEFAULT 0,
		normal_mode_sends BIGINT NOT NULL DEFAULT 0,
		test_mode_sends BIGINT NOT NULL DEFAULT 0,
		dmi_mode_sends BIGINT NOT NULL DEFAULT 0,
		total_photos BIGINT NOT NULL DEFAULT 0,
		total_audio_recordings BIGINT NOT NULL DEFAULT 0,
		total_audio_duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_text_sends BIGINT NOT NULL DEFAULT 0,
		total_characters_sent BIGINT NOT NULL DEFAULT 0,
		first_use_at TIMESTAMPTZ,
		last_activity_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_last_seen ON users (last_seen_at DESC)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
