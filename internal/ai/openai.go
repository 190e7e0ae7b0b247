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
var _ Ranker = (*OpenAIRanker)(nil)

const (
	// DefaultOpenAIBaseURL is used when no base URL is configured.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// DefaultOpenAIModel is used when no model is configured.
	DefaultOpenAIModel = "gpt-4o-mini"

	// DefaultOpenRouterBaseURL and DefaultOpenRouterModel replace the OpenAI
	// defaults for the "openrouter" provider.
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "openai/gpt-4o-mini"
)

// OpenAIRanker implements Ranker using an OpenAI-compatible Chat Completions
// API (OpenAI itself, OpenRouter, and similar gateways).
type OpenAIRanker struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAIRanker creates an OpenAIRanker, filling in the default base URL
// and model of the configured provider.
func NewOpenAIRanker(cfg ProviderConfig, client *http.Client) *OpenAIRanker {
	defBaseURL, defModel := DefaultOpenAIBaseURL, DefaultOpenAIModel
	if strings.EqualFold(strings.TrimSpace(cfg.Provider), "openrouter") {
		defBaseURL, defModel = DefaultOpenRouterBaseURL, DefaultOpenRouterModel
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defModel
	}
	return &OpenAIRanker{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: NormalizeBaseURL(cfg.BaseURL, defBaseURL),
		model:   model,
		client:  client,
	}
}

// openaiRequest is the request body for the Chat Completions API.
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

// openaiMessage is a single message in the request.
type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openaiResponse is the response body from the Chat Completions API.
type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Rank selects the sources that best support text using the Chat
// Completions API.
func (p *OpenAIRanker) Rank(ctx context.Context, text string, results []search.Result) ([]RankedSource, error) {
	if p.apiKey == "" || len(results) == 0 {
		return nil, nil
	}

	systemPrompt, userPrompt := RankPrompt(text, results)

	content, err := p.callAPI(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("openai rank: %w", err)
	}

	ranked, err := ParseRanked(content)
	if err != nil {
		return nil, fmt.Errorf("openai rank: %w", err)
	}
	return ranked, nil
}

// callAPI posts the prompts to {baseURL}/chat/completions and returns the
// trimmed content of the first choice.
func (p *OpenAIRanker) callAPI(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := openaiRequest{
		Model: p.model,
		Messages: []openaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	slog.Debug("calling chat completions API", "base_url", p.baseURL, "model", p.model)

	respBody, err := postJSON(ctx, p.client, p.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + p.apiKey}, reqBody)
	if err != nil {
		return "", err
	}

	var apiResp openaiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response: no choices returned")
	}

	content := strings.TrimSpace(apiResp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty response: no message content")
	}
	return content, nil
}
