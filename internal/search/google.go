// Package search finds candidate sources for a query through the Google
// Custom Search JSON API, SerpApi, or an RSS/Atom search feed.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// GoogleEndpoint is the Custom Search JSON API endpoint.
	GoogleEndpoint = "https://www.googleapis.com/customsearch/v1"

	// DefaultMaxResults is the number of candidates requested when the
	// caller does not say otherwise.
	DefaultMaxResults = 8

	// googleMaxResults is the hard cap of the Custom Search API.
	googleMaxResults = 10

	maxQueryLength = 500
	httpTimeout    = 30 * time.Second
)

// Result is a single search hit. Results carry no identity beyond Link and
// are not deduplicated.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
}

// Options carries the per-call Google credentials and limits.
type Options struct {
	APIKey     string
	CSEID      string
	MaxResults int
}

// Configured reports whether both Google credentials are present.
func (o Options) Configured() bool {
	return strings.TrimSpace(o.APIKey) != "" && strings.TrimSpace(o.CSEID) != ""
}

// GoogleClient queries the Google Custom Search JSON API.
type GoogleClient struct {
	endpoint string
	client   *http.Client
}

// NewGoogleClient creates a GoogleClient with a 30-second timeout HTTP
// client.
func NewGoogleClient() *GoogleClient {
	return NewGoogleClientWithEndpoint(GoogleEndpoint, &http.Client{Timeout: httpTimeout})
}

// NewGoogleClientWithEndpoint creates a GoogleClient that talks to endpoint
// through client.
func NewGoogleClientWithEndpoint(endpoint string, client *http.Client) *GoogleClient {
	return &GoogleClient{endpoint: endpoint, client: client}
}

// googleResponse is the subset of the Custom Search response we use.
type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search returns candidate results for query. Missing credentials return no
// results and no error without touching the network. A non-2xx response
// returns an error carrying the status and body.
func (c *GoogleClient) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if !opts.Configured() {
		return nil, nil
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	params := url.Values{}
	params.Set("key", strings.TrimSpace(opts.APIKey))
	params.Set("cx", strings.TrimSpace(opts.CSEID))
	params.Set("q", truncate(query, maxQueryLength))
	params.Set("num", strconv.Itoa(min(maxResults, googleMaxResults)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	slog.Debug("calling Google Custom Search", "query", query)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google search: sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("google search: reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("google search: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data googleResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("google search: parsing response: %w", err)
	}

	results := make([]Result, 0, len(data.Items))
	for _, item := range data.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}
