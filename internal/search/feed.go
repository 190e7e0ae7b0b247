package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// QueryPlaceholder marks where the escaped query goes in a feed URL, e.g.
// "https://news.google.com/rss/search?q={query}&hl=ru&gl=RU&ceid=RU:ru".
const QueryPlaceholder = "{query}"

// FeedOptions carries the per-call feed search settings.
type FeedOptions struct {
	FeedURL    string
	MaxResults int
}

// Configured reports whether a feed URL template is present.
func (o FeedOptions) Configured() bool {
	return strings.TrimSpace(o.FeedURL) != ""
}

// FeedClient searches through an RSS or Atom endpoint that accepts the query
// in its URL, such as Google News or Bing News RSS search.
type FeedClient struct {
	client *http.Client
}

// NewFeedClient creates a FeedClient with a 30-second timeout HTTP client.
func NewFeedClient() *FeedClient {
	return NewFeedClientWithHTTPClient(&http.Client{Timeout: httpTimeout})
}

// NewFeedClientWithHTTPClient creates a FeedClient that fetches feeds
// through client.
func NewFeedClientWithHTTPClient(client *http.Client) *FeedClient {
	return &FeedClient{client: client}
}

// Search fetches the feed for query and maps its items to results. A missing
// feed URL returns no results and no error.
func (c *FeedClient) Search(ctx context.Context, query string, opts FeedOptions) ([]Result, error) {
	if !opts.Configured() {
		return nil, nil
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	feedURL := FeedSearchURL(opts.FeedURL, query)

	fp := gofeed.NewParser()
	fp.Client = c.client

	slog.Debug("fetching search feed", "url", feedURL)

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("feed search %q: %w", feedURL, err)
	}

	results := make([]Result, 0, min(len(feed.Items), maxResults))
	for _, item := range feed.Items {
		if len(results) >= maxResults {
			break
		}
		if item == nil || item.Link == "" {
			continue
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(item.Title),
			Link:    item.Link,
			Snippet: plainText(item.Description),
		})
	}
	return results, nil
}

// FeedSearchURL substitutes the query-escaped, length-bounded query into the
// template. Templates without a placeholder get a q parameter appended.
func FeedSearchURL(template, query string) string {
	escaped := url.QueryEscape(truncate(query, maxQueryLength))
	if strings.Contains(template, QueryPlaceholder) {
		return strings.ReplaceAll(template, QueryPlaceholder, escaped)
	}
	sep := "?"
	if strings.Contains(template, "?") {
		sep = "&"
	}
	return template + sep + "q=" + escaped
}

// plainText strips markup from a feed description and collapses whitespace.
func plainText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(textContent(doc)), " ")
}

// textContent returns the concatenated text of an HTML node and its
// children, separating block boundaries with spaces.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
		sb.WriteByte(' ')
	}
	return sb.String()
}
