// Package pipeline runs the source-finding sequence: normalize input, build a
// query, search, optionally rank with an LLM, and deliver the outcome either
// as a Telegram message or as an API result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/hoanghai1803/newsluhy/internal/ai"
	"github.com/hoanghai1803/newsluhy/internal/search"
	"github.com/hoanghai1803/newsluhy/internal/telegram"
	"github.com/hoanghai1803/newsluhy/internal/text"
)

// Env carries the credentials and knobs for one run. Blank credentials
// disable the stage they belong to; nothing is filled in for them.
type Env struct {
	GoogleAPIKey  string
	GoogleCSEID   string
	SerpAPIKey    string
	SearchFeedURL string
	QueryStrategy string
	MaxResults    int

	AIProvider string
	AIAPIKey   string
	AIBaseURL  string
	AIModel    string
}

func (e Env) googleOptions() search.Options {
	return search.Options{APIKey: e.GoogleAPIKey, CSEID: e.GoogleCSEID, MaxResults: e.MaxResults}
}

func (e Env) serpAPIOptions() search.SerpAPIOptions {
	return search.SerpAPIOptions{APIKey: e.SerpAPIKey, MaxResults: e.MaxResults}
}

func (e Env) feedOptions() search.FeedOptions {
	return search.FeedOptions{FeedURL: e.SearchFeedURL, MaxResults: e.MaxResults}
}

func (e Env) providerConfig() ai.ProviderConfig {
	return ai.ProviderConfig{
		Provider: e.AIProvider,
		APIKey:   e.AIAPIKey,
		BaseURL:  e.AIBaseURL,
		Model:    e.AIModel,
	}
}

// SearchConfigured reports whether any search backend can run.
func (e Env) SearchConfigured() bool {
	return e.googleOptions().Configured() ||
		e.serpAPIOptions().Configured() ||
		e.feedOptions().Configured()
}

// AIConfigured reports whether ranking can run.
func (e Env) AIConfigured() bool {
	return strings.TrimSpace(e.AIAPIKey) != ""
}

// Cause explains why a run produced no sources.
type Cause int

const (
	CauseNone Cause = iota
	CauseNoText
	CauseSearchNotConfigured
	CauseAINotConfigured
	CauseNoMatches
)

// Outcome is the result of a completed run.
type Outcome struct {
	Query   string
	Sources []ai.RankedSource
	// Ranked is true when Sources came from the model rather than from the
	// raw search order.
	Ranked bool
	Cause  Cause
}

// delivery hands a run's outcome to its consumer.
type delivery interface {
	deliver(ctx context.Context, out Outcome)
	fail(ctx context.Context, err error)
}

// Deps are the clients a Pipeline calls. Nil fields get default clients.
type Deps struct {
	Normalizer *text.Normalizer
	Google     *search.GoogleClient
	SerpAPI    *search.SerpAPIClient
	Feed       *search.FeedClient
	Notifier   *telegram.Client
	AIClient   *http.Client
}

// Pipeline sequences the stages. It holds no per-request state and is safe
// for concurrent use.
type Pipeline struct {
	normalizer *text.Normalizer
	google     *search.GoogleClient
	serpAPI    *search.SerpAPIClient
	feed       *search.FeedClient
	notifier   *telegram.Client
	aiClient   *http.Client
}

// New creates a Pipeline from deps.
func New(deps Deps) *Pipeline {
	p := &Pipeline{
		normalizer: deps.Normalizer,
		google:     deps.Google,
		serpAPI:    deps.SerpAPI,
		feed:       deps.Feed,
		notifier:   deps.Notifier,
		aiClient:   deps.AIClient,
	}
	if p.normalizer == nil {
		p.normalizer = text.NewNormalizer()
	}
	if p.google == nil {
		p.google = search.NewGoogleClient()
	}
	if p.serpAPI == nil {
		p.serpAPI = search.NewSerpAPIClient()
	}
	if p.feed == nil {
		p.feed = search.NewFeedClient()
	}
	if p.notifier == nil {
		p.notifier = telegram.NewClient()
	}
	if p.aiClient == nil {
		p.aiClient = &http.Client{Timeout: 60 * time.Second}
	}
	return p
}

// Notifier returns the Telegram client the pipeline replies through.
func (p *Pipeline) Notifier() *telegram.Client {
	return p.notifier
}

// run executes the sequence and hands the outcome to d. Panics and errors
// never escape: they are logged and delivered as a failure.
func (p *Pipeline) run(ctx context.Context, rawInput string, env Env, d delivery) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("pipeline panic recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			d.fail(ctx, fmt.Errorf("panic: %v", rec))
		}
	}()

	out, err := p.process(ctx, rawInput, env)
	if err != nil {
		slog.Error("pipeline failed", "error", err)
		d.fail(ctx, err)
		return
	}
	d.deliver(ctx, out)
}

// process runs every stage. Stage failures degrade to empty stage results;
// only a cancelled context is an error.
func (p *Pipeline) process(ctx context.Context, rawInput string, env Env) (Outcome, error) {
	inputText := p.normalizer.InputText(ctx, rawInput)
	if inputText == "" {
		return Outcome{Cause: CauseNoText}, nil
	}

	query := search.BuildQuery(inputText, env.QueryStrategy)
	slog.Info("searching sources", "query", query, "strategy", env.QueryStrategy)

	results, searched := p.search(ctx, query, env)
	if !searched {
		return Outcome{Query: query, Cause: CauseSearchNotConfigured}, nil
	}

	var (
		sources []ai.RankedSource
		ranked  bool
	)
	if env.AIConfigured() && len(results) > 0 {
		sources = p.rank(ctx, inputText, results, env)
		ranked = len(sources) > 0
	}
	if len(sources) == 0 && len(results) > 0 {
		sources = unranked(results)
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("pipeline interrupted: %w", err)
	}

	out := Outcome{Query: query, Sources: sources, Ranked: ranked}
	if len(sources) == 0 {
		if env.AIConfigured() {
			out.Cause = CauseNoMatches
		} else {
			out.Cause = CauseAINotConfigured
		}
	}

	slog.Info("pipeline finished",
		"results", len(results),
		"sources", len(sources),
		"ranked", ranked,
	)
	return out, nil
}

// search queries the first configured backend: Google Custom Search, then
// SerpApi, then the search feed. searched is false when none is.
func (p *Pipeline) search(ctx context.Context, query string, env Env) (results []search.Result, searched bool) {
	var err error
	switch {
	case env.googleOptions().Configured():
		results, err = p.google.Search(ctx, query, env.googleOptions())
	case env.serpAPIOptions().Configured():
		results, err = p.serpAPI.Search(ctx, query, env.serpAPIOptions())
	case env.feedOptions().Configured():
		results, err = p.feed.Search(ctx, query, env.feedOptions())
	default:
		return nil, false
	}

	if err != nil {
		slog.Warn("search failed, continuing without results", "error", err)
		return nil, true
	}
	return results, true
}

// rank asks the configured model to pick the best results. Failures are
// logged and yield no sources.
func (p *Pipeline) rank(ctx context.Context, inputText string, results []search.Result, env Env) []ai.RankedSource {
	ranker, err := ai.NewRanker(env.providerConfig(), p.aiClient)
	if err != nil {
		slog.Warn("ranking disabled", "error", err)
		return nil
	}

	sources, err := ranker.Rank(ctx, inputText, results)
	if err != nil {
		slog.Warn("ranking failed, falling back to search order", "error", err)
		return nil
	}
	return sources
}

// unranked turns the first search results into sources with zero confidence
// and no reason.
func unranked(results []search.Result) []ai.RankedSource {
	n := min(len(results), ai.MaxSelected)
	sources := make([]ai.RankedSource, n)
	for i, r := range results[:n] {
		sources[i] = ai.RankedSource{Title: r.Title, Link: r.Link}
	}
	return sources
}
