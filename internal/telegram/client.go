// Package telegram talks to the Telegram Bot API: it sends chat messages and
// decodes the updates Telegram posts to the webhook.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIBase is the Bot API prefix; the bot token follows it directly.
const DefaultAPIBase = "https://api.telegram.org/bot"

const httpTimeout = 30 * time.Second

// Parse modes accepted by sendMessage.
const (
	ParseModeHTML     = "HTML"
	ParseModeMarkdown = "Markdown"
)

// SendOptions are optional sendMessage flags. Zero values are left out of
// the request.
type SendOptions struct {
	ParseMode             string
	DisableWebPagePreview bool
}

// Client sends messages through the Bot API.
type Client struct {
	apiBase string
	client  *http.Client
}

// NewClient creates a Client for the public Bot API with a 30-second
// timeout HTTP client.
func NewClient() *Client {
	return NewClientWithBase(DefaultAPIBase, &http.Client{Timeout: httpTimeout})
}

// NewClientWithBase creates a Client that sends to apiBase+token+"/sendMessage".
func NewClientWithBase(apiBase string, client *http.Client) *Client {
	return &Client{apiBase: apiBase, client: client}
}

// sendMessageRequest is the sendMessage request body.
type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
	ParseMode             string `json:"parse_mode,omitempty"`
}

// SendMessage posts text to chatID using the bot token. It reports whether
// Telegram accepted the message; failures are logged, never returned.
func (c *Client) SendMessage(ctx context.Context, token string, chatID int64, text string, opts *SendOptions) bool {
	reqBody := sendMessageRequest{ChatID: chatID, Text: text}
	if opts != nil {
		reqBody.DisableWebPagePreview = opts.DisableWebPagePreview
		reqBody.ParseMode = opts.ParseMode
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		slog.Error("telegram sendMessage: marshaling request", "error", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+token+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		slog.Error("telegram sendMessage: creating request", "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Transport errors quote the URL, which carries the token.
		slog.Error("telegram sendMessage failed", "chat_id", chatID, "error", redact(err.Error(), token))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		slog.Error("telegram sendMessage error",
			"chat_id", chatID,
			"status", resp.StatusCode,
			"body", strings.TrimSpace(string(respBody)),
		)
		return false
	}

	return true
}

// redact removes the bot token from s.
func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<token>")
}
