package invitation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"safatyundangan/backend/internal/domain"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*domain.InvitationResponse
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*domain.InvitationResponse)}
}

func (c *memoryCache) Get(_ context.Context, key string) (*domain.InvitationResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	copied := *entry
	return &copied, true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value *domain.InvitationResponse, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func validRequest() domain.InvitationRequest {
	return domain.InvitationRequest{
		GroomName: "Rizky",
		BrideName: "Sarah",
		Date:      "2026-09-12",
		Venue:     "Gedung Serbaguna Melati",
		Tone:      domain.ToneFormal,
		Language:  domain.LanguageIndonesian,
	}
}

func geminiStub(t *testing.T, wording string, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + wording + `"}]}}]}`))
	}))
}

func TestGenerateRequiresConfiguration(t *testing.T) {
	engine := NewEngine(Config{}, nil, 0)

	_, err := engine.Generate(context.Background(), validRequest())
	if err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateValidatesFields(t *testing.T) {
	engine := NewEngine(Config{APIKey: "test-key"}, nil, 0)

	cases := []struct {
		name   string
		mutate func(*domain.InvitationRequest)
	}{
		{"missing groom", func(r *domain.InvitationRequest) { r.GroomName = " " }},
		{"missing bride", func(r *domain.InvitationRequest) { r.BrideName = "" }},
		{"missing date", func(r *domain.InvitationRequest) { r.Date = "" }},
		{"missing venue", func(r *domain.InvitationRequest) { r.Venue = "" }},
		{"bad tone", func(r *domain.InvitationRequest) { r.Tone = "dramatic" }},
		{"bad language", func(r *domain.InvitationRequest) { r.Language = "fr" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			if _, err := engine.Generate(context.Background(), req); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestGenerateCallsModelAndCaches(t *testing.T) {
	calls := 0
	server := geminiStub(t, "Dengan hormat, kami mengundang...", &calls)
	defer server.Close()

	engine := NewEngine(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, newMemoryCache(), time.Minute)

	first, err := engine.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.Wording != "Dengan hormat, kami mengundang..." {
		t.Fatalf("unexpected wording %q", first.Wording)
	}
	if first.Cached {
		t.Fatalf("first response should not be marked cached")
	}
	if first.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected model %q", first.Model)
	}

	second, err := engine.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate (cached): %v", err)
	}
	if !second.Cached {
		t.Fatalf("second response should be served from cache")
	}
	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}
}

func TestGenerateEmptyCandidatesFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	engine := NewEngine(Config{APIKey: "test-key", BaseURL: server.URL}, nil, 0)

	resp, err := engine.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Wording != fallbackWording {
		t.Fatalf("expected fallback wording, got %q", resp.Wording)
	}
}

func TestGenerateUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	engine := NewEngine(Config{APIKey: "test-key", BaseURL: server.URL}, nil, 0)

	_, err := engine.Generate(context.Background(), validRequest())
	if err == nil {
		t.Fatalf("expected upstream error")
	}
}

func TestCacheKeyNormalizesCase(t *testing.T) {
	a := validRequest()
	b := validRequest()
	b.GroomName = "  RIZKY "
	b.Venue = "gedung serbaguna melati"

	if buildCacheKey(a) != buildCacheKey(b) {
		t.Fatalf("cache key should ignore case and surrounding whitespace")
	}

	c := validRequest()
	c.Tone = domain.ToneIslamic
	if buildCacheKey(a) == buildCacheKey(c) {
		t.Fatalf("cache key must distinguish tones")
	}
}
