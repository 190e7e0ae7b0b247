// Package text turns raw user input into the plain text the pipeline
// analyzes. Links to Telegram channel posts are resolved by scraping the
// post page; anything else is used as typed.
package text

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const (
	httpTimeout  = 30 * time.Second
	maxBodyBytes = 10 * 1024 * 1024
	userAgent    = "Mozilla/5.0 (compatible; NewSluhyBot/1.0)"
)

var postLinkRe = regexp.MustCompile(`(?i)^https?://(www\.)?t\.me/\S+`)

// IsPostLink reports whether s looks like a link to a Telegram post.
func IsPostLink(s string) bool {
	return postLinkRe.MatchString(strings.TrimSpace(s))
}

// Normalizer resolves raw input into analyzable text.
type Normalizer struct {
	client *http.Client
}

// NewNormalizer creates a Normalizer with a 30-second timeout HTTP client.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		client: &http.Client{Timeout: httpTimeout},
	}
}

// NewNormalizerWithClient creates a Normalizer that fetches pages through
// the given client.
func NewNormalizerWithClient(client *http.Client) *Normalizer {
	return &Normalizer{client: client}
}

// InputText returns the text to analyze for rawInput. Blank input yields "".
// For post links it tries to scrape the post text and falls back to the link
// itself when that fails, so a link never produces an empty result.
func (n *Normalizer) InputText(ctx context.Context, rawInput string) string {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return ""
	}

	if postLinkRe.MatchString(trimmed) {
		postText, err := n.FetchPostText(ctx, trimmed)
		if err != nil {
			slog.Warn("failed to scrape post text, using link as input", "url", trimmed, "error", err)
			return Collapse(trimmed)
		}
		return postText
	}

	return Collapse(trimmed)
}

// FetchPostText downloads a Telegram post page and returns the human
// readable description found in its meta tags.
func (n *Normalizer) FetchPostText(ctx context.Context, postURL string) (string, error) {
	postURL = strings.TrimSpace(postURL)
	if !postLinkRe.MatchString(postURL) {
		return "", fmt.Errorf("not a post link: %q", postURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, postURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %q: %w", postURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetching %q: HTTP %d", postURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body from %q: %w", postURL, err)
	}

	if text := descriptionFromMeta(body); text != "" {
		return text, nil
	}

	// Pages without usable meta tags still carry readable content.
	if text := readableText(body, postURL); text != "" {
		return text, nil
	}

	return "", fmt.Errorf("no post text found at %q", postURL)
}

// readableText runs a readability pass over body and returns its excerpt,
// or the article text when there is no excerpt.
func readableText(body []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		slog.Debug("readability extraction failed", "url", pageURL, "error", err)
		return ""
	}

	if excerpt := Collapse(article.Excerpt); excerpt != "" {
		return excerpt
	}
	return Collapse(article.TextContent)
}

// Collapse replaces every whitespace run with a single space and trims the
// result.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
