// Package entities pulls coarse lexical features out of free text: candidate
// claims, dates, numbers, URLs and personal names. The heuristics are tuned
// for Russian-language news posts.
package entities

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Entities holds the features found in a piece of text. Every field is a
// deduplicated list in order of first appearance.
type Entities struct {
	Claims  []string `json:"claims"`
	Dates   []string `json:"dates"`
	Numbers []string `json:"numbers"`
	URLs    []string `json:"urls"`
	Names   []string `json:"names"`
}

// minClaimLength is the number of characters a sentence must exceed to be
// considered a claim.
const minClaimLength = 15

var (
	urlRe = regexp.MustCompile(`(?i)https?://(www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&/=]*)`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}[./]\d{1,2}[./]\d{2,4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}\s+(января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря)\s+\d{2,4}\b`),
	}

	numberRe = regexp.MustCompile(`\b\d+[\d.,]*\d*\b|\b\d+\b`)

	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
)

// stopWords are short prepositions and conjunctions that never start or
// continue a name, even when capitalized at the beginning of a sentence.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields("и в на с по к о у за из от для при до без под над") {
		stopWords[w] = struct{}{}
	}
}

// Extract runs every sub-extractor over text. Blank input yields five empty
// lists.
func Extract(text string) Entities {
	if strings.TrimSpace(text) == "" {
		return Entities{
			Claims:  []string{},
			Dates:   []string{},
			Numbers: []string{},
			URLs:    []string{},
			Names:   []string{},
		}
	}

	return Entities{
		Claims:  extractClaims(text),
		Dates:   extractDates(text),
		Numbers: extractNumbers(text),
		URLs:    extractURLs(text),
		Names:   extractNames(text),
	}
}

// extractClaims splits text into sentences and keeps the ones long enough to
// carry a statement.
func extractClaims(text string) []string {
	var claims []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		s = strings.Join(strings.Fields(s), " ")
		if utf8.RuneCountInString(s) > minClaimLength {
			claims = append(claims, s)
		}
	}
	return dedupe(claims)
}

func extractDates(text string) []string {
	var dates []string
	for _, re := range datePatterns {
		dates = append(dates, re.FindAllString(text, -1)...)
	}
	return dedupe(dates)
}

func extractNumbers(text string) []string {
	return dedupe(numberRe.FindAllString(text, -1))
}

func extractURLs(text string) []string {
	return dedupe(urlRe.FindAllString(text, -1))
}

// extractNames treats runs of two or more consecutive capitalized words as a
// name. Single capitalized words are dropped since they are usually just the
// start of a sentence.
func extractNames(text string) []string {
	var (
		names   []string
		current []string
	)
	flush := func() {
		if len(current) >= 2 {
			names = append(names, strings.Join(current, " "))
		}
		current = current[:0]
	}

	for _, word := range strings.Fields(text) {
		clean := lettersOnly(word)
		if utf8.RuneCountInString(clean) < 2 {
			flush()
			continue
		}
		if _, stop := stopWords[strings.ToLower(clean)]; stop {
			flush()
			continue
		}
		if isCapitalized(clean) {
			current = append(current, word)
		} else {
			flush()
		}
	}
	flush()

	return dedupe(names)
}

// lettersOnly strips every rune that is not a Unicode letter.
func lettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s)
}

// isCapitalized reports whether the first rune is an uppercase letter that
// has a distinct lowercase form.
func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.ToUpper(r) == r && unicode.ToLower(r) != r
}

// dedupe removes repeated entries while keeping the first occurrence order.
// It always returns a non-nil slice so empty results encode as [].
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
