// Package submission drives one dictation through the intake pipeline:
// classify, validate, encode, resolve the destination, deliver, record.
package submission

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dictamed/backend/internal/payload"
	"github.com/dictamed/backend/internal/stats"
	"github.com/dictamed/backend/internal/store"
	"github.com/dictamed/backend/internal/webhook"
)

const recordTimeout = 10 * time.Second

type Result struct {
	SubmissionID   string
	ProcessedCount int
	WebhookSource  webhook.Source
}

type Service struct {
	builder  *payload.Builder
	resolver *webhook.Resolver
	sender   webhook.Sender
	recorder *stats.Recorder
	users    store.UserRepository
	now      func() time.Time

	// Pending fire-and-forget recorders, drained on shutdown.
	background sync.WaitGroup
}

func NewService(builder *payload.Builder, resolver *webhook.Resolver, sender webhook.Sender, recorder *stats.Recorder, users store.UserRepository) *Service {
	return &Service{
		builder:  builder,
		resolver: resolver,
		sender:   sender,
		recorder: recorder,
		users:    users,
		now:      time.Now,
	}
}

// Submit runs the whole pipeline. The caller's input is never mutated,
// so a failed submission leaves the un-sent data intact for a retry.
// Statistics are recorded fire-and-forget after a successful delivery.
func (s *Service) Submit(ctx context.Context, identity payload.Identity, mode payload.Mode, input payload.RecordingInput) (*Result, error) {
	p, err := s.builder.Build(input, identity, mode)
	if err != nil {
		return nil, err
	}

	url, source := s.resolver.Resolve(ctx, identity.ID, mode)
	slog.Info("submitting dictation",
		"submission_id", p.Metadata.SubmissionID,
		"user_id", identity.ID,
		"mode", mode,
		"input_type", p.InputType,
		"webhook_source", source)

	receipt, err := s.sender.Send(ctx, url, p)
	if err != nil {
		slog.Error("dictation submission failed", "submission_id", p.Metadata.SubmissionID, "error", err)
		return nil, err
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.recordOutcome(identity, mode, input)
	}()

	return &Result{
		SubmissionID:   p.Metadata.SubmissionID,
		ProcessedCount: receipt.Processed,
		WebhookSource:  source,
	}, nil
}

// Flush waits for pending fire-and-forget work; called on shutdown.
func (s *Service) Flush() {
	s.background.Wait()
}

func (s *Service) recordOutcome(identity payload.Identity, mode payload.Mode, input payload.RecordingInput) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	var delta stats.Delta
	switch {
	case input.Audio != nil:
		delta.AudioCount = 1
		delta.AudioDurationSeconds = input.Audio.DurationSeconds
	case input.Text != nil:
		delta.TextLength = utf8.RuneCountInString(strings.TrimSpace(input.Text.Text))
	case input.Photo != nil:
		delta.PhotoCount = 1
	}
	s.recorder.Record(ctx, identity.ID, mode, delta)

	if identity.ID == "" {
		return
	}
	if err := s.users.UpsertUser(ctx, store.UpsertUserInput{
		ID:          identity.ID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		SeenAt:      s.now(),
	}); err != nil {
		slog.Warn("failed to refresh user directory entry", "error", err, "user_id", identity.ID)
	}
}
