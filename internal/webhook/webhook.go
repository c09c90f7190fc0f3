package webhook

import (
	"context"

	"github.com/dictamed/backend/internal/payload"
)

// Receipt is the webhook's acknowledgement of a delivered submission.
type Receipt struct {
	Processed int
}

type Sender interface {
	Send(ctx context.Context, url string, p *payload.SubmissionPayload) (*Receipt, error)
}
