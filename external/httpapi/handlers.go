package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dictamed/backend/internal/config"
	"github.com/dictamed/backend/internal/payload"
	"github.com/dictamed/backend/internal/store"
	"github.com/dictamed/backend/internal/submission"
	"github.com/dictamed/backend/internal/webhook"
	"github.com/go-chi/chi/v5"
)

// Base64 inflates binary parts by a third; keep headroom above the
// 25 MB blob ceiling.
const maxRequestBytes = 64 << 20

const preloadTimeout = 5 * time.Second

type Submitter interface {
	Submit(ctx context.Context, identity payload.Identity, mode payload.Mode, input payload.RecordingInput) (*submission.Result, error)
}

type StatsSource interface {
	GetStats(ctx context.Context, userID string) (*store.UsageStats, error)
}

type BindingCache interface {
	Invalidate(userID string)
	Preload(ctx context.Context, userID string) error
}

type Handler struct {
	cfg         *config.Config
	submitter   Submitter
	statsSource StatsSource
	bindings    store.WebhookBindingRepository
	users       store.UserRepository
	invalidator BindingCache
	sender      webhook.Sender
	limiter     *userRateLimiter
	now         func() time.Time
}

func NewHandler(cfg *config.Config, submitter Submitter, statsSource StatsSource, st store.Store, invalidator BindingCache, sender webhook.Sender) *Handler {
	return &Handler{
		cfg:         cfg,
		submitter:   submitter,
		statsSource: statsSource,
		bindings:    st,
		users:       st,
		invalidator: invalidator,
		sender:      sender,
		limiter:     newUserRateLimiter(cfg.SubmitRatePerMinute, cfg.SubmitRateBurst),
		now:         time.Now,
	}
}

type audioPart struct {
	Data     string  `json:"data"`
	Duration float64 `json:"duration"`
	Format   string  `json:"format"`
}

type textPart struct {
	Text string `json:"text"`
}

type photoPart struct {
	Data        string `json:"data"`
	MimeType    string `json:"mimeType"`
	Description string `json:"description"`
}

type submissionRequest struct {
	UserID      string     `json:"userId"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Mode        string     `json:"mode"`
	Audio       *audioPart `json:"audio,omitempty"`
	Text        *textPart  `json:"text,omitempty"`
	Photo       *photoPart `json:"photo,omitempty"`
}

type submissionResponse struct {
	SubmissionID  string `json:"submissionId"`
	Processed     int    `json:"processed"`
	WebhookSource string `json:"webhookSource"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid request body"})
		return
	}

	mode, err := payload.ParseMode(req.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	limiterKey := req.UserID
	if limiterKey == "" {
		limiterKey = r.RemoteAddr
	}
	if !h.limiter.allow(limiterKey) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate_limited", Message: "too many submissions, slow down"})
		return
	}

	input, err := buildRecordingInput(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	identity := payload.Identity{ID: req.UserID, Email: req.Email, DisplayName: req.DisplayName}
	result, err := h.submitter.Submit(r.Context(), identity, mode, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionResponse{
		SubmissionID:  result.SubmissionID,
		Processed:     result.ProcessedCount,
		WebhookSource: string(result.WebhookSource),
	})
}

// buildRecordingInput decodes base64 parts into the pipeline's tagged
// union. Presence of a part (not its validity) drives classification,
// which stays the pipeline's job.
func buildRecordingInput(req submissionRequest) (payload.RecordingInput, error) {
	var input payload.RecordingInput
	if req.Audio != nil {
		blob, err := base64.StdEncoding.DecodeString(req.Audio.Data)
		if err != nil {
			return input, fmt.Errorf("audio data is not valid base64: %w", err)
		}
		input.Audio = &payload.AudioInput{
			Blob:            blob,
			DurationSeconds: req.Audio.Duration,
			Format:          req.Audio.Format,
		}
	}
	if req.Text != nil {
		input.Text = &payload.TextInput{Text: req.Text.Text}
	}
	if req.Photo != nil {
		blob, err := base64.StdEncoding.DecodeString(req.Photo.Data)
		if err != nil {
			return input, fmt.Errorf("photo data is not valid base64: %w", err)
		}
		input.Photo = &payload.PhotoInput{
			Blob:        blob,
			MimeType:    req.Photo.MimeType,
			Description: req.Photo.Description,
		}
	}
	return input, nil
}

type statsResponse struct {
	UserID                    string     `json:"userId"`
	TotalSends                int64      `json:"totalSends"`
	NormalModeSends           int64      `json:"normalModeSends"`
	TestModeSends             int64      `json:"testModeSends"`
	DMIModeSends              int64      `json:"dmiModeSends"`
	TotalPhotos               int64      `json:"totalPhotos"`
	TotalAudioRecordings      int64      `json:"totalAudioRecordings"`
	TotalAudioDurationSeconds float64    `json:"totalAudioDurationSeconds"`
	TotalTextSends            int64      `json:"totalTextSends"`
	TotalCharactersSent       int64      `json:"totalCharactersSent"`
	FirstUseAt                *time.Time `json:"firstUseAt,omitempty"`
	LastActivityAt            *time.Time `json:"lastActivityAt,omitempty"`
}

func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	st, err := h.statsSource.GetStats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		UserID:                    st.UserID,
		TotalSends:                st.TotalSends,
		NormalModeSends:           st.NormalModeSends,
		TestModeSends:             st.TestModeSends,
		DMIModeSends:              st.DMIModeSends,
		TotalPhotos:               st.TotalPhotos,
		TotalAudioRecordings:      st.TotalAudioRecordings,
		TotalAudioDurationSeconds: st.TotalAudioDurationSeconds,
		TotalTextSends:            st.TotalTextSends,
		TotalCharactersSent:       st.TotalCharactersSent,
		FirstUseAt:                st.FirstUseAt,
		LastActivityAt:            st.LastActivityAt,
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RequireAdmin gates the admin console routes with the configured
// token. The real authorization boundary is enforced upstream; this is
// a convenience gate mirroring the product's single-admin model.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.AdminToken)) != 1 {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Message: "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			FirstSeenAt: u.FirstSeenAt,
			LastSeenAt:  u.LastSeenAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type webhookBindingResponse struct {
	UserID     string     `json:"userId"`
	URL        string     `json:"url"`
	IsActive   bool       `json:"isActive"`
	Notes      string     `json:"notes,omitempty"`
	UpdatedBy  string     `json:"updatedBy,omitempty"`
	LastUsed   *time.Time `json:"lastUsed,omitempty"`
	UsageCount int64      `json:"usageCount"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func bindingResponse(b *store.WebhookBinding) webhookBindingResponse {
	return webhookBindingResponse{
		UserID:     b.UserID,
		URL:        b.URL,
		IsActive:   b.IsActive,
		Notes:      b.Notes,
		UpdatedBy:  b.UpdatedBy,
		LastUsed:   b.LastUsed,
		UsageCount: b.UsageCount,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func (h *Handler) HandleListWebhooks(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.bindings.ListWebhookBindings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]webhookBindingResponse, 0, len(bindings))
	for i := range bindings {
		out = append(out, bindingResponse(&bindings[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type putWebhookRequest struct {
	URL      string `json:"url"`
	IsActive *bool  `json:"isActive,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func (h *Handler) HandlePutWebhook(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var req putWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid request body"})
		return
	}
	if err := webhook.ValidateURL(req.URL); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_input", Message: err.Error(), Field: "url"})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	binding, err := h.bindings.PutWebhookBinding(r.Context(), store.PutWebhookBindingInput{
		UserID:    userID,
		URL:       req.URL,
		IsActive:  isActive,
		Notes:     req.Notes,
		UpdatedBy: h.cfg.AdminEmail,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	// Cached resolutions for this user are now stale; re-warm so the
	// next submission resolves without a store round-trip.
	h.invalidator.Invalidate(userID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), preloadTimeout)
		defer cancel()
		if err := h.invalidator.Preload(ctx, userID); err != nil {
			slog.Warn("failed to preload webhook bindings", "error", err, "user_id", userID)
		}
	}()
	writeJSON(w, http.StatusOK, bindingResponse(binding))
}

func (h *Handler) HandleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.bindings.DeleteWebhookBinding(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	h.invalidator.Invalidate(userID)
	w.WriteHeader(http.StatusNoContent)
}

type testWebhookRequest struct {
	URL string `json:"url"`
}

// HandleTestWebhook pings a candidate URL with a minimal test-mode
// payload so the admin can verify an endpoint before assigning it.
func (h *Handler) HandleTestWebhook(w http.ResponseWriter, r *http.Request) {
	var req testWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid request body"})
		return
	}
	if err := webhook.ValidateURL(req.URL); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_input", Message: err.Error(), Field: "url"})
		return
	}

	p := &payload.SubmissionPayload{
		UserID:      "admin",
		Email:       h.cfg.AdminEmail,
		DisplayName: "DictaMed Admin",
		Mode:        payload.ModeTest,
		InputType:   payload.InputText,
		Data:        payload.Data{Text: "Test de connexion DictaMed"},
		Metadata: payload.Metadata{
			Timestamp:     h.now().UTC().Format(time.RFC3339),
			ClientVersion: h.cfg.ClientVersion,
		},
	}
	receipt, err := h.sender.Send(r.Context(), req.URL, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "processed": receipt.Processed})
}
