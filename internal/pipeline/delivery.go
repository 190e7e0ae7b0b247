package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/hoanghai1803/newsluhy/internal/ai"
	"github.com/hoanghai1803/newsluhy/internal/telegram"
)

// Chat replies.
const (
	MsgProcessing          = "Обрабатываю…"
	MsgNoText              = "Не удалось извлечь текст. Отправьте текст или ссылку на пост t.me/…"
	MsgSearchNotConfigured = "Для поиска источников настройте Google Custom Search (GOOGLE_API_KEY и GOOGLE_CSE_ID), SerpApi (SERPAPI_API_KEY) или RSS-поиск (search.feed_url)."
	MsgAINotConfigured     = "По запросу ничего не найдено. AI-ранжирование не настроено: задайте OPENAI_API_KEY."
	MsgNoMatches           = "Подходящих источников не найдено."
	MsgFailed              = "Произошла ошибка при обработке. Попробуйте позже."

	headerRanked   = "Возможные источники:"
	headerUnranked = "Возможные источники (без AI-ранжирования):"
)

// API error strings.
const (
	ErrNoText              = "Не удалось извлечь текст"
	ErrSearchNotConfigured = "Поиск не настроен: задайте GOOGLE_API_KEY и GOOGLE_CSE_ID, SERPAPI_API_KEY или search.feed_url"
	ErrAINotConfigured     = "Источники не найдены, AI-ранжирование не настроено"
	ErrNoMatches           = "Подходящих источников не найдено"
	ErrInternal            = "Ошибка при обработке запроса. Попробуйте позже."
)

// APIResult is the JSON body of the find-sources endpoint.
type APIResult struct {
	OK      bool              `json:"ok"`
	Sources []ai.RankedSource `json:"sources,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// RunChat processes rawInput and replies in the chat. It never returns an
// error: every path ends with a message or a logged failure.
func (p *Pipeline) RunChat(ctx context.Context, chatID int64, rawInput, token string, env Env) {
	p.run(ctx, rawInput, env, &chatDelivery{notifier: p.notifier, token: token, chatID: chatID})
}

// RunAPI processes rawInput and returns the structured result.
func (p *Pipeline) RunAPI(ctx context.Context, rawInput string, env Env) APIResult {
	d := &apiDelivery{}
	p.run(ctx, rawInput, env, d)
	return d.result
}

type chatDelivery struct {
	notifier *telegram.Client
	token    string
	chatID   int64
}

func (c *chatDelivery) deliver(ctx context.Context, out Outcome) {
	if out.Cause == CauseNoText {
		c.notifier.SendMessage(ctx, c.token, c.chatID, MsgNoText, nil)
		return
	}
	c.notifier.SendMessage(ctx, c.token, c.chatID, FormatChatMessage(out),
		&telegram.SendOptions{DisableWebPagePreview: true})
}

func (c *chatDelivery) fail(ctx context.Context, _ error) {
	// The run context may be the reason for the failure.
	c.notifier.SendMessage(context.WithoutCancel(ctx), c.token, c.chatID, MsgFailed, nil)
}

type apiDelivery struct {
	result APIResult
}

func (a *apiDelivery) deliver(_ context.Context, out Outcome) {
	switch out.Cause {
	case CauseNoText:
		a.result = APIResult{Error: ErrNoText}
	case CauseSearchNotConfigured:
		a.result = APIResult{Error: ErrSearchNotConfigured}
	case CauseAINotConfigured:
		a.result = APIResult{Error: ErrAINotConfigured}
	case CauseNoMatches:
		a.result = APIResult{Error: ErrNoMatches}
	default:
		a.result = APIResult{OK: true, Sources: out.Sources}
	}
}

func (a *apiDelivery) fail(context.Context, error) {
	a.result = APIResult{Error: ErrInternal}
}

// FormatChatMessage renders an outcome as a plain-text chat reply.
func FormatChatMessage(out Outcome) string {
	switch out.Cause {
	case CauseNoText:
		return MsgNoText
	case CauseSearchNotConfigured:
		return MsgSearchNotConfigured
	case CauseAINotConfigured:
		return MsgAINotConfigured
	case CauseNoMatches:
		return MsgNoMatches
	}

	header := headerUnranked
	if out.Ranked {
		header = headerRanked
	}

	lines := make([]string, len(out.Sources))
	for i, s := range out.Sources {
		title := s.Title
		if title == "" {
			title = s.Link
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s\n   %s", i+1, title, s.Link)
		if out.Ranked {
			fmt.Fprintf(&b, "\n   Уверенность: %d%%", s.Confidence)
		}
		if s.Reason != "" {
			fmt.Fprintf(&b, "\n   %s", s.Reason)
		}
		lines[i] = b.String()
	}

	return header + "\n\n" + strings.Join(lines, "\n\n")
}
