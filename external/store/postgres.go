package store

import (
	"context"
	"time"

	"github.com/dictamed/backend/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) store.Store {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetWebhookBinding(ctx context.Context, userID string) (*store.WebhookBinding, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT user_id, url, is_active, notes, updated_by, last_used, usage_count, created_at, updated_at
		 FROM webhook_bindings WHERE user_id = $1`,
		userID)
	var b store.WebhookBinding
	err := row.Scan(&b.UserID, &b.URL, &b.IsActive, &b.Notes, &b.UpdatedBy, &b.LastUsed, &b.UsageCount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (s *PostgresStore) PutWebhookBinding(ctx context.Context, input store.PutWebhookBindingInput) (*store.WebhookBinding, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO webhook_bindings (user_id, url, is_active, notes, updated_by)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE
		 SET url = EXCLUDED.url,
		     is_active = EXCLUDED.is_active,
		     notes = EXCLUDED.notes,
		     updated_by = EXCLUDED.updated_by,
		     updated_at = NOW()
		 RETURNING user_id, url, is_active, notes, updated_by, last_used, usage_count, created_at, updated_at`,
		input.UserID, input.URL, input.IsActive, input.Notes, input.UpdatedBy)
	var b store.WebhookBinding
	err := row.Scan(&b.UserID, &b.URL, &b.IsActive, &b.Notes, &b.UpdatedBy, &b.LastUsed, &b.UsageCount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresStore) DeleteWebhookBinding(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM webhook_bindings WHERE user_id = $1`, userID)
	return err
}

func (s *PostgresStore) ListWebhookBindings(ctx context.Context) ([]store.WebhookBinding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, url, is_active, notes, updated_by, last_used, usage_count, created_at, updated_at
		 FROM webhook_bindings ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []store.WebhookBinding
	for rows.Next() {
		var b store.WebhookBinding
		if err := rows.Scan(&b.UserID, &b.URL, &b.IsActive, &b.Notes, &b.UpdatedBy, &b.LastUsed, &b.UsageCount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (s *PostgresStore) TouchWebhookBinding(ctx context.Context, userID string, usedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE webhook_bindings
		 SET usage_count = usage_count + 1, last_used = $2
		 WHERE user_id = $1`,
		userID, usedAt)
	return err
}

// IncrementUsageStats applies the whole delta in one upsert so that
// concurrent sessions compose without lost updates.
func (s *PostgresStore) IncrementUsageStats(ctx context.Context, userID string, delta store.StatsDelta) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO usage_stats (
			user_id, total_sends, normal_mode_sends, test_mode_sends, dmi_mode_sends,
			total_photos, total_audio_recordings, total_audio_duration_seconds,
			total_text_sends, total_characters_sent, first_use_at, last_activity_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		 ON CONFLICT (user_id) DO UPDATE
		 SET total_sends = usage_stats.total_sends + EXCLUDED.total_sends,
		     normal_mode_sends = usage_stats.normal_mode_sends + EXCLUDED.normal_mode_sends,
		     test_mode_sends = usage_stats.test_mode_sends + EXCLUDED.test_mode_sends,
		     dmi_mode_sends = usage_stats.dmi_mode_sends + EXCLUDED.dmi_mode_sends,
		     total_photos = usage_stats.total_photos + EXCLUDED.total_photos,
		     total_audio_recordings = usage_stats.total_audio_recordings + EXCLUDED.total_audio_recordings,
		     total_audio_duration_seconds = usage_stats.total_audio_duration_seconds + EXCLUDED.total_audio_duration_seconds,
		     total_text_sends = usage_stats.total_text_sends + EXCLUDED.total_text_sends,
		     total_characters_sent = usage_stats.total_characters_sent + EXCLUDED.total_characters_sent,
		     first_use_at = COALESCE(usage_stats.first_use_at, EXCLUDED.first_use_at),
		     last_activity_at = EXCLUDED.last_activity_at`,
		userID, delta.TotalSends, delta.NormalModeSends, delta.TestModeSends, delta.DMIModeSends,
		delta.TotalPhotos, delta.TotalAudioRecordings, delta.TotalAudioDurationSeconds,
		delta.TotalTextSends, delta.TotalCharactersSent, delta.ActivityAt)
	return err
}

func (s *PostgresStore) GetUsageStats(ctx context.Context, userID string) (*store.UsageStats, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT user_id, total_sends, normal_mode_sends, test_mode_sends, dmi_mode_sends,
		        total_photos, total_audio_recordings, total_audio_duration_seconds,
		        total_text_sends, total_characters_sent, first_use_at, last_activity_at
		 FROM usage_stats WHERE user_id = $1`,
		userID)
	var st store.UsageStats
	err := row.Scan(&st.UserID, &st.TotalSends, &st.NormalModeSends, &st.TestModeSends, &st.DMIModeSends,
		&st.TotalPhotos, &st.TotalAudioRecordings, &st.TotalAudioDurationSeconds,
		&st.TotalTextSends, &st.TotalCharactersSent, &st.FirstUseAt, &st.LastActivityAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &store.UsageStats{UserID: userID}, nil
		}
		return nil, err
	}
	return &st, nil
}

func (s *PostgresStore) UpsertUser(ctx context.Context, input store.UpsertUserInput) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, first_seen_at, last_seen_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET email = EXCLUDED.email,
		     display_name = EXCLUDED.display_name,
		     last_seen_at = EXCLUDED.last_seen_at`,
		input.ID, input.Email, input.DisplayName, input.SeenAt)
	return err
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]store.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, display_name, first_seen_at, last_seen_at
		 FROM users ORDER BY last_seen_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []store.User
	for rows.Next() {
		var u store.User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.FirstSeenAt, &u.LastSeenAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
