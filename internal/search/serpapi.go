package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	serpapi "github.com/serpapi/google-search-results-golang"
)

// SerpAPIOptions carries the per-call SerpApi credentials and limits.
type SerpAPIOptions struct {
	APIKey     string
	MaxResults int
}

// Configured reports whether a SerpApi key is present.
func (o SerpAPIOptions) Configured() bool {
	return strings.TrimSpace(o.APIKey) != ""
}

// SerpAPIClient queries Google through SerpApi. It is used when Custom
// Search credentials are not available.
type SerpAPIClient struct {
	transport http.RoundTripper
}

// NewSerpAPIClient creates a SerpAPIClient on the default transport.
func NewSerpAPIClient() *SerpAPIClient {
	return NewSerpAPIClientWithTransport(http.DefaultTransport)
}

// NewSerpAPIClientWithTransport creates a SerpAPIClient whose requests go
// through rt.
func NewSerpAPIClientWithTransport(rt http.RoundTripper) *SerpAPIClient {
	return &SerpAPIClient{transport: rt}
}

// Search returns the organic results for query. A missing key returns no
// results and no error without touching the network.
func (c *SerpAPIClient) Search(ctx context.Context, query string, opts SerpAPIOptions) ([]Result, error) {
	if !opts.Configured() {
		return nil, nil
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	s := serpapi.NewGoogleSearch(map[string]string{
		"q":   truncate(query, maxQueryLength),
		"num": strconv.Itoa(min(maxResults, googleMaxResults)),
	}, strings.TrimSpace(opts.APIKey))
	// The library has no context parameter; the transport carries ctx.
	s.HttpSearch = &http.Client{
		Timeout:   httpTimeout,
		Transport: contextTransport{ctx: ctx, base: c.transport},
	}

	slog.Debug("calling SerpApi", "query", query)

	data, err := s.GetJSON()
	if err != nil {
		return nil, fmt.Errorf("serpapi search: %w", err)
	}

	organic, _ := data["organic_results"].([]any)
	results := make([]Result, 0, min(len(organic), maxResults))
	for _, item := range organic {
		if len(results) >= maxResults {
			break
		}
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		link, _ := entry["link"].(string)
		if link == "" {
			continue
		}
		title, _ := entry["title"].(string)
		snippet, _ := entry["snippet"].(string)
		results = append(results, Result{Title: title, Link: link, Snippet: snippet})
	}
	return results, nil
}

// contextTransport attaches ctx to every request it sends.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
