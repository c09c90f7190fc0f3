package webhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dictamed/backend/internal/cache"
	"github.com/dictamed/backend/internal/payload"
	"github.com/dictamed/backend/internal/store"
)

type mockBindingStore struct {
	binding    *store.WebhookBinding
	getErr     error
	getCalls   int
	touchCalls chan string
}

func (m *mockBindingStore) GetWebhookBinding(_ context.Context, _ string) (*store.WebhookBinding, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.binding, nil
}

func (m *mockBindingStore) PutWebhookBinding(_ context.Context, input store.PutWebhookBindingInput) (*store.WebhookBinding, error) {
	return &store.WebhookBinding{UserID: input.UserID, URL: input.URL, IsActive: input.IsActive}, nil
}

func (m *mockBindingStore) DeleteWebhookBinding(_ context.Context, _ string) error { return nil }

func (m *mockBindingStore) ListWebhookBindings(_ context.Context) ([]store.WebhookBinding, error) {
	return nil, nil
}

func (m *mockBindingStore) TouchWebhookBinding(_ context.Context, userID string, _ time.Time) error {
	if m.touchCalls != nil {
		m.touchCalls <- userID
	}
	return nil
}

var testDefaults = Defaults{
	payload.ModeNormal: "https://n8n.example.com/webhook/DictaMedNormalMode",
	payload.ModeTest:   "https://n8n.example.com/webhook/DictaMed",
	payload.ModeDMI:    "https://n8n.example.com/webhook/DictaMedDMI",
}

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func newTestResolver(st store.WebhookBindingRepository, clk *fakeClock) *Resolver {
	return &Resolver{
		bindings: st,
		defaults: testDefaults,
		cache:    cache.New[cacheKey, string](5*time.Minute, clk.now),
		now:      clk.now,
	}
}

func activeBinding(url string) *store.WebhookBinding {
	return &store.WebhookBinding{UserID: "u2", URL: url, IsActive: true}
}

func TestResolve_NoUserSkipsStore(t *testing.T) {
	st := &mockBindingStore{}
	r := newTestResolver(st, &fakeClock{t: time.Unix(1000, 0)})

	url, source := r.Resolve(context.Background(), "", payload.ModeTest)
	if url != testDefaults[payload.ModeTest] {
		t.Fatalf("unexpected url: %s", url)
	}
	if source != SourceDefault {
		t.Fatalf("expected default source, got %s", source)
	}
	if st.getCalls != 0 {
		t.Fatalf("expected no store lookup, got %d", st.getCalls)
	}
}

func TestResolve_BindingHitIsCached(t *testing.T) {
	st := &mockBindingStore{
		binding:    activeBinding("https://custom.example.com/webhook/abc"),
		touchCalls: make(chan string, 2),
	}
	clk := &fakeClock{t: time.Unix(1000, 0)}
	r := newTestResolver(st, clk)

	url1, source := r.Resolve(context.Background(), "u2", payload.ModeDMI)
	if url1 != "https://custom.example.com/webhook/abc" {
		t.Fatalf("unexpected url: %s", url1)
	}
	if source != SourceBinding {
		t.Fatalf("expected binding source, got %s", source)
	}

	clk.t = clk.t.Add(4 * time.Minute)
	url2, _ := r.Resolve(context.Background(), "u2", payload.ModeDMI)
	if url2 != url1 {
		t.Fatalf("second resolve returned different url: %s", url2)
	}
	if st.getCalls != 1 {
		t.Fatalf("expected one store query within TTL, got %d", st.getCalls)
	}

	select {
	case userID := <-st.touchCalls:
		if userID != "u2" {
			t.Fatalf("usage recorded for wrong user: %s", userID)
		}
	case <-time.After(time.Second):
		t.Fatal("expected binding usage to be recorded")
	}
}

func TestResolve_CacheExpiryRequeries(t *testing.T) {
	st := &mockBindingStore{binding: activeBinding("https://custom.example.com/webhook/abc")}
	clk := &fakeClock{t: time.Unix(1000, 0)}
	r := newTestResolver(st, clk)

	r.Resolve(context.Background(), "u2", payload.ModeNormal)
	clk.t = clk.t.Add(5 * time.Minute)
	r.Resolve(context.Background(), "u2", payload.ModeNormal)

	if st.getCalls != 2 {
		t.Fatalf("expected re-query after TTL, got %d calls", st.getCalls)
	}
}

func TestResolve_NoBindingFallsBackWithoutNegativeCaching(t *testing.T) {
	st := &mockBindingStore{}
	r := newTestResolver(st, &fakeClock{t: time.Unix(1000, 0)})

	url, source := r.Resolve(context.Background(), "u3", payload.ModeTest)
	if url != testDefaults[payload.ModeTest] {
		t.Fatalf("unexpected url: %s", url)
	}
	if source != SourceDefault {
		t.Fatalf("expected default source, got %s", source)
	}

	// A binding assigned after the miss is picked up immediately.
	st.binding = &store.WebhookBinding{UserID: "u3", URL: "https://late.example.com/webhook/x", IsActive: true}
	url, source = r.Resolve(context.Background(), "u3", payload.ModeTest)
	if url != "https://late.example.com/webhook/x" || source != SourceBinding {
		t.Fatalf("expected fresh binding, got %s from %s", url, source)
	}
	if st.getCalls != 2 {
		t.Fatalf("expected two store queries, got %d", st.getCalls)
	}
}

func TestResolve_InactiveBindingTreatedAsAbsent(t *testing.T) {
	st := &mockBindingStore{
		binding: &store.WebhookBinding{UserID: "u4", URL: "https://custom.example.com/webhook/x", IsActive: false},
	}
	r := newTestResolver(st, &fakeClock{t: time.Unix(1000, 0)})

	url, source := r.Resolve(context.Background(), "u4", payload.ModeTest)
	if url != testDefaults[payload.ModeTest] || source != SourceDefault {
		t.Fatalf("expected default for inactive binding, got %s from %s", url, source)
	}
}

func TestResolve_InvalidStoredURLFallsBack(t *testing.T) {
	st := &mockBindingStore{
		binding: &store.WebhookBinding{UserID: "u5", URL: "http://insecure.example.com/webhook/x", IsActive: true},
	}
	r := newTestResolver(st, &fakeClock{t: time.Unix(1000, 0)})

	url, source := r.Resolve(context.Background(), "u5", payload.ModeNormal)
	if url != testDefaults[payload.ModeNormal] || source != SourceDefault {
		t.Fatalf("expected default for invalid stored URL, got %s from %s", url, source)
	}
}

func TestResolve_StoreErrorFallsBack(t *testing.T) {
	st := &mockBindingStore{getErr: errors.New("connection refused")}
	r := newTestResolver(st, &fakeClock{t: time.Unix(1000, 0)})

	url, source := r.Resolve(context.Background(), "u6", payload.ModeDMI)
	if url != testDefaults[payload.ModeDMI] || source != SourceDefault {
		t.Fatalf("expected default on store error, got %s from %s", url, source)
	}
}

func TestInvalidate_ForcesRequeryForAllModes(t *testing.T) {
	st := &mockBindingStore{binding: activeBinding("https://custom.example.com/webhook/abc")}
	clk := &fakeClock{t: time.Unix(1000, 0)}
	r := newTestResolver(st, clk)

	r.Resolve(context.Background(), "u2", payload.ModeNormal)
	r.Resolve(context.Background(), "u2", payload.ModeDMI)
	if st.getCalls != 2 {
		t.Fatalf("expected two initial queries, got %d", st.getCalls)
	}

	r.Invalidate("u2")
	r.Resolve(context.Background(), "u2", payload.ModeNormal)
	r.Resolve(context.Background(), "u2", payload.ModeDMI)
	if st.getCalls != 4 {
		t.Fatalf("expected re-query after invalidation regardless of TTL, got %d calls", st.getCalls)
	}
}

func TestPreload_WarmsEveryMode(t *testing.T) {
	st := &mockBindingStore{binding: activeBinding("https://custom.example.com/webhook/abc")}
	r := newTestResolver(st, &fakeClock{t: time.Unix(1000, 0)})

	if err := r.Preload(context.Background(), "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.getCalls != len(payload.AllModes()) {
		t.Fatalf("expected %d queries, got %d", len(payload.AllModes()), st.getCalls)
	}

	for _, mode := range payload.AllModes() {
		r.Resolve(context.Background(), "u2", mode)
	}
	if st.getCalls != len(payload.AllModes()) {
		t.Fatalf("expected cache hits after preload, got %d queries", st.getCalls)
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://n8n.example.com/webhook/DictaMed",
		"https://custom.example.com/webhook/abc",
		"https://example.com/hooks/inbound",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected %q accepted: %v", u, err)
		}
	}
	invalid := []string{
		"",
		"http://n8n.example.com/webhook/DictaMed",
		"/webhook/DictaMed",
		"https://",
		"https://example.com/webhook/a b",
		"https://example.com/webhook/<script>",
	}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected %q rejected", u)
		}
	}
}
