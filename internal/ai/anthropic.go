package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoanghai1803/newsluhy/internal/search"
)

// Compile-time interface check.
var _ Ranker = (*AnthropicRanker)(nil)

const (
	// DefaultAnthropicBaseURL is used when no base URL is configured.
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"

	// DefaultAnthropicModel is used when no model is configured.
	DefaultAnthropicModel = "claude-haiku-4-5"

	anthropicVersion = "2023-06-01"
)

// AnthropicRanker implements Ranker using the Anthropic Messages API.
type AnthropicRanker struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewAnthropicRanker creates an AnthropicRanker, filling in the default base
// URL and model.
func NewAnthropicRanker(cfg ProviderConfig, client *http.Client) *AnthropicRanker {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicRanker{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: NormalizeBaseURL(cfg.BaseURL, DefaultAnthropicBaseURL),
		model:   model,
		client:  client,
	}
}

// anthropicRequest is the request body for the Messages API.
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
}

// anthropicMessage is a single message in the request.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the response body from the Messages API.
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Rank selects the sources that best support text using the Messages API.
func (p *AnthropicRanker) Rank(ctx context.Context, text string, results []search.Result) ([]RankedSource, error) {
	if p.apiKey == "" || len(results) == 0 {
		return nil, nil
	}

	systemPrompt, userPrompt := RankPrompt(text, results)

	content, err := p.callAPI(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("anthropic rank: %w", err)
	}

	ranked, err := ParseRanked(content)
	if err != nil {
		return nil, fmt.Errorf("anthropic rank: %w", err)
	}
	return ranked, nil
}

// callAPI posts the prompts to {baseURL}/messages and returns the text of
// the first text block.
func (p *AnthropicRanker) callAPI(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt},
		},
	}

	slog.Debug("calling Anthropic API", "base_url", p.baseURL, "model", p.model)

	respBody, err := postJSON(ctx, p.client, p.baseURL+"/messages", map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}, reqBody)
	if err != nil {
		return "", err
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	for _, block := range apiResp.Content {
		if block.Type == "" || block.Type == "text" {
			if text := strings.TrimSpace(block.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("empty response: no content blocks returned")
}
