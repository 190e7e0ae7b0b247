package search

import (
	"strings"

	"github.com/hoanghai1803/newsluhy/internal/entities"
)

const (
	// DefaultQuery is used whenever nothing searchable is left in the input.
	DefaultQuery = "новости"

	// DefaultQueryLength bounds queries built from whole text.
	DefaultQueryLength = 300

	maxClaimLength = 100
)

// Query strategies selectable through configuration.
const (
	StrategyText     = "text"
	StrategyEntities = "entities"
)

// BuildQuery builds a search query from text using the named strategy.
// Unknown strategies fall back to the whole-text strategy.
func BuildQuery(text, strategy string) string {
	if strategy == StrategyEntities {
		return QueryFromEntities(entities.Extract(text))
	}
	return QueryFromText(text, DefaultQueryLength)
}

// QueryFromText collapses whitespace in text and truncates it to maxLength
// characters. A non-positive maxLength means DefaultQueryLength.
func QueryFromText(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultQueryLength
	}
	q := truncate(strings.Join(strings.Fields(text), " "), maxLength)
	q = strings.TrimSpace(q)
	if q == "" {
		return DefaultQuery
	}
	return q
}

// QueryFromEntities composes a query from the first claim, up to three
// names, the first date and up to two numbers.
func QueryFromEntities(e entities.Entities) string {
	var parts []string
	if len(e.Claims) > 0 {
		parts = append(parts, truncate(e.Claims[0], maxClaimLength))
	}
	if len(e.Names) > 0 {
		parts = append(parts, strings.Join(e.Names[:min(3, len(e.Names))], " "))
	}
	if len(e.Dates) > 0 {
		parts = append(parts, e.Dates[0])
	}
	if len(e.Numbers) > 0 {
		parts = append(parts, strings.Join(e.Numbers[:min(2, len(e.Numbers))], " "))
	}

	q := strings.TrimSpace(strings.Join(parts, " "))
	if q == "" {
		return DefaultQuery
	}
	return q
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
