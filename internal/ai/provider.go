// Package ai ranks search candidates by how well they support a piece of
// text, using an LLM chat API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hoanghai1803/newsluhy/internal/search"
)

const (
	// MaxSelected is the most sources a ranking may return.
	MaxSelected = 3

	maxTokens   = 800
	temperature = 0.2
	httpTimeout = 60 * time.Second
)

// Ranker is the interface that all LLM providers must implement.
type Ranker interface {
	// Rank selects up to MaxSelected results that best support text, most
	// relevant first. Without an API key or candidates it returns no sources
	// and no error, and makes no request.
	Rank(ctx context.Context, text string, results []search.Result) ([]RankedSource, error)
}

// NewRanker creates the appropriate ranker based on config. An empty
// provider selects the OpenAI-compatible API. A nil client gets a 60-second
// timeout client.
func NewRanker(cfg ProviderConfig, client *http.Client) (Ranker, error) {
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai", "openrouter":
		return NewOpenAIRanker(cfg, client), nil
	case "anthropic":
		return NewAnthropicRanker(cfg, client), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// NormalizeBaseURL returns base without a trailing slash, with https://
// prepended when it carries no scheme. Blank base yields def.
func NormalizeBaseURL(base, def string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return def
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/")
}

// postJSON sends payload to url and returns the response body. Non-2xx
// responses are errors that carry the status and body.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}
