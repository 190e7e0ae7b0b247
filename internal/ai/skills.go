package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hoanghai1803/newsluhy/internal/search"
)

// maxPromptTextLength bounds the source text sent to the model, in
// characters.
const maxPromptTextLength = 3000

const rankSystemPrompt = `Ты помогаешь найти источники информации. На вход подаётся исходный текст (утверждение или пост) и список кандидатов — результатов поиска с заголовком, URL и сниппетом.
Выбери от 1 до 3 кандидатов, которые лучше всего подтверждают или раскрывают смысл исходного текста. Сравнивай по смыслу, а не по буквальному совпадению слов. Для каждого выбранного источника укажи уверенность — целое число от 1 до 100 — и одну короткую фразу с причиной выбора.
Ответь строго JSON-массивом, без markdown и без текста вне JSON. Формат элемента:
{"title": "заголовок", "link": "url", "confidence": число, "reason": "краткая причина"}
Упорядочи элементы от самого релевантного к наименее релевантному. Если ни один кандидат не подходит, верни пустой массив [].`

// RankPrompt builds the system and user prompts for ranking results against
// text. The text is cut to its first 3000 characters.
func RankPrompt(text string, results []search.Result) (systemPrompt string, userPrompt string) {
	candidates := make([]string, len(results))
	for i, r := range results {
		candidates[i] = fmt.Sprintf("%d. %s\n   URL: %s\n   %s", i+1, r.Title, r.Link, r.Snippet)
	}

	var b strings.Builder
	b.WriteString("Исходный текст:\n\n")
	b.WriteString(truncateRunes(text, maxPromptTextLength))
	b.WriteString("\n\nКандидаты источников:\n\n")
	b.WriteString(strings.Join(candidates, "\n\n"))

	return rankSystemPrompt, b.String()
}

// ParseRanked decodes a model reply into ranked sources. The reply may be
// wrapped in a markdown code fence. Entries without a link or a numeric
// confidence are skipped, at most MaxSelected entries are kept, and
// confidence is rounded and clamped to [0, 100]. Replies that are not a JSON
// array are errors.
func ParseRanked(content string) ([]RankedSource, error) {
	cleaned := extractJSON(content)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("parsing response JSON %q: %w", content, err)
	}

	ranked := make([]RankedSource, 0, min(len(items), MaxSelected))
	for _, raw := range items {
		if len(ranked) == MaxSelected {
			break
		}

		var entry map[string]any
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}

		link := coerceString(entry["link"])
		confidence, ok := entry["confidence"].(float64)
		if link == "" || !ok {
			continue
		}

		ranked = append(ranked, RankedSource{
			Title:      coerceString(entry["title"]),
			Link:       link,
			Confidence: clampConfidence(confidence),
			Reason:     coerceString(entry["reason"]),
		})
	}
	return ranked, nil
}

// extractJSON strips a markdown code fence, with or without a language tag,
// from around s. This handles the common case where LLMs return JSON inside
// ```json ... ``` blocks despite being asked not to.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	after, found := strings.CutPrefix(s, "```")
	if !found {
		return s
	}

	// Drop the language tag, e.g. "json" or "JSON".
	after = strings.TrimLeftFunc(after, func(r rune) bool {
		return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
	})
	after = strings.TrimSuffix(strings.TrimSpace(after), "```")
	return strings.TrimSpace(after)
}

// coerceString turns a decoded JSON scalar into a string. Objects, arrays,
// booleans and null yield "".
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func clampConfidence(c float64) int {
	return int(math.Min(100, math.Max(0, math.Round(c))))
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
