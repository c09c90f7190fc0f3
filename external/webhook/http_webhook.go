package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dictamed/backend/internal/apperror"
	"github.com/dictamed/backend/internal/payload"
	"github.com/dictamed/backend/internal/webhook"
)

const maxResponseBytes = 1 << 20

// webhookResponse is the body the n8n workflow answers with.
type webhookResponse struct {
	Status    string `json:"status"`
	Processed int    `json:"processed"`
	Message   string `json:"message"`
}

// HTTPSender POSTs submissions as JSON with bounded exponential-backoff
// retry. Transport failures (network errors, non-2xx, unparseable
// bodies) are retried; an explicit non-success status in a parsed body
// is a server-side rejection and terminal.
type HTTPSender struct {
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewHTTPSender(maxAttempts int, baseDelay time.Duration) webhook.Sender {
	return &HTTPSender{
		client:      &http.Client{},
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       sleepContext,
	}
}

func (s *HTTPSender) Send(ctx context.Context, url string, p *payload.SubmissionPayload) (*webhook.Receipt, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := s.baseDelay << (attempt - 2)
			slog.Info("retrying webhook submission", "attempt", attempt, "max_attempts", s.maxAttempts, "delay", delay, "url", url)
			if err := s.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		receipt, terminal, err := s.attempt(ctx, url, body)
		if err == nil {
			return receipt, nil
		}
		if terminal {
			return nil, &apperror.AppError{
				Err:     apperror.ErrSubmissionFailed,
				Message: fmt.Sprintf("webhook rejected submission: %v", err),
			}
		}
		lastErr = err
		slog.Warn("webhook submission attempt failed", "attempt", attempt, "error", err, "url", url)
	}
	return nil, apperror.SubmissionFailed(s.maxAttempts, lastErr)
}

// attempt performs one POST. terminal reports a parsed server-side
// rejection, which must not be retried.
func (s *HTTPSender) attempt(ctx context.Context, url string, body []byte) (receipt *webhook.Receipt, terminal bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var parsed webhookResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, false, fmt.Errorf("unparseable webhook response: %w", err)
	}
	if parsed.Status != "success" {
		msg := parsed.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, true, fmt.Errorf("server returned status %q: %s", parsed.Status, msg)
	}
	return &webhook.Receipt{Processed: parsed.Processed}, false, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
