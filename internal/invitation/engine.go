package invitation

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"safatyundangan/backend/internal/cache"
	"safatyundangan/backend/internal/domain"
)

// ErrNotConfigured is returned when no API key is set. Callers map it to a
// "feature unavailable" response instead of a server error.
var ErrNotConfigured = errors.New("invitation engine not configured")

var ErrUpstream = errors.New("invitation upstream failed")

const fallbackWording = "Maaf, gagal menghasilkan teks saat ini."

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Engine struct {
	cfg      Config
	client   *http.Client
	cache    cache.InvitationCache
	cacheTTL time.Duration
}

func NewEngine(cfg Config, cacheStore cache.InvitationCache, cacheTTL time.Duration) *Engine {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cacheStore == nil {
		cacheStore = cache.NoopInvitationCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}

	return &Engine{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		cache:    cacheStore,
		cacheTTL: cacheTTL,
	}
}

func (e *Engine) Configured() bool {
	return e.cfg.APIKey != ""
}

func (e *Engine) Generate(ctx context.Context, req domain.InvitationRequest) (*domain.InvitationResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !e.Configured() {
		return nil, ErrNotConfigured
	}

	cacheKey := buildCacheKey(req)
	if cached, ok, err := e.cache.Get(ctx, cacheKey); err == nil && ok {
		cached.Cached = true
		return cached, nil
	}

	wording, err := e.callModel(ctx, buildPrompt(req))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(wording) == "" {
		wording = fallbackWording
	}

	resp := &domain.InvitationResponse{
		Wording: wording,
		Model:   e.cfg.Model,
	}
	_ = e.cache.Set(ctx, cacheKey, resp, e.cacheTTL)
	return resp, nil
}

func validateRequest(req domain.InvitationRequest) error {
	if strings.TrimSpace(req.GroomName) == "" ||
		strings.TrimSpace(req.BrideName) == "" ||
		strings.TrimSpace(req.Date) == "" ||
		strings.TrimSpace(req.Venue) == "" {
		return fmt.Errorf("groomName, brideName, date and venue are required")
	}
	switch req.Tone {
	case domain.ToneFormal, domain.ToneCasual, domain.ToneIslamic, domain.ToneJavanese:
	default:
		return fmt.Errorf("unsupported tone %q", req.Tone)
	}
	switch req.Language {
	case domain.LanguageIndonesian, domain.LanguageEnglish, domain.LanguageJavanese:
	default:
		return fmt.Errorf("unsupported language %q", req.Language)
	}
	return nil
}

func buildPrompt(req domain.InvitationRequest) string {
	language := "Indonesia"
	switch req.Language {
	case domain.LanguageJavanese:
		language = "Jawa Halus (Krama Inggil)"
	case domain.LanguageEnglish:
		language = "Inggris"
	}

	var b strings.Builder
	b.WriteString("Bertindaklah sebagai penulis konten kreatif untuk percetakan undangan pernikahan profesional.\n")
	b.WriteString("Buatkan draf teks undangan pernikahan yang indah dan terstruktur dengan detail berikut:\n\n")
	fmt.Fprintf(&b, "- Mempelai Pria: %s\n", req.GroomName)
	fmt.Fprintf(&b, "- Mempelai Wanita: %s\n", req.BrideName)
	fmt.Fprintf(&b, "- Tanggal: %s\n", req.Date)
	fmt.Fprintf(&b, "- Lokasi: %s\n", req.Venue)
	fmt.Fprintf(&b, "- Gaya Bahasa: %s (Formal/Santai/Islami/Adat Jawa)\n", req.Tone)
	fmt.Fprintf(&b, "- Bahasa Output: %s\n\n", language)
	b.WriteString("Format output harus rapi, mengandung pembukaan, isi (detail acara), dan penutup yang sopan.\n")
	b.WriteString("Jangan gunakan markdown bold/italic yang berlebihan, fokus pada kata-kata yang puitis namun jelas.")
	return b.String()
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (e *Engine) callModel(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(e.cfg.BaseURL, "/"), e.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", e.cfg.APIKey)

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUpstream, httpResp.StatusCode)
	}

	var decoded generateContentResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

func buildCacheKey(req domain.InvitationRequest) string {
	normalized := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(req.GroomName)),
		strings.ToLower(strings.TrimSpace(req.BrideName)),
		strings.TrimSpace(req.Date),
		strings.ToLower(strings.TrimSpace(req.Venue)),
		req.Tone,
		req.Language,
	}, "|")

	hash := sha1.Sum([]byte(normalized))
	return "safaty:invitation:" + hex.EncodeToString(hash[:])
}
