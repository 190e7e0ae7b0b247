package telegram

import (
	"unicode/utf16"
)

// Update is the subset of a Bot API update the webhook handles.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID       int64           `json:"message_id"`
	Chat            Chat            `json:"chat"`
	Date            int64           `json:"date"`
	Text            string          `json:"text,omitempty"`
	Caption         string          `json:"caption,omitempty"`
	Entities        []MessageEntity `json:"entities,omitempty"`
	CaptionEntities []MessageEntity `json:"caption_entities,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// MessageEntity marks a span of message text. Offset and Length count
// UTF-16 code units, as the Bot API does.
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"`
}

// Entity types that point at a link.
const (
	EntityURL      = "url"
	EntityTextLink = "text_link"
)

// MessageText returns the chat and the text to process for an update. The
// message text wins, then the caption. When both are empty the first link
// entity is used: a text_link yields its URL, a url yields the span it
// covers. ok is false when there is no message, no chat, or nothing usable.
func MessageText(u Update) (chatID int64, text string, ok bool) {
	msg := u.Message
	if msg == nil || msg.Chat.ID == 0 {
		return 0, "", false
	}

	if msg.Text != "" {
		return msg.Chat.ID, msg.Text, true
	}
	if msg.Caption != "" {
		return msg.Chat.ID, msg.Caption, true
	}

	candidates := []struct {
		source   string
		entities []MessageEntity
	}{
		{msg.Text, msg.Entities},
		{msg.Caption, msg.CaptionEntities},
	}
	for _, c := range candidates {
		for _, e := range c.entities {
			if e.Type != EntityURL && e.Type != EntityTextLink {
				continue
			}
			if e.Type == EntityTextLink && e.URL != "" {
				return msg.Chat.ID, e.URL, true
			}
			if span := utf16Slice(c.source, e.Offset, e.Length); span != "" {
				return msg.Chat.ID, span, true
			}
			break
		}
	}

	return 0, "", false
}

// utf16Slice returns the part of s covered by an entity offset and length,
// clamped to the bounds of s.
func utf16Slice(s string, offset, length int) string {
	units := utf16.Encode([]rune(s))
	if offset < 0 || length <= 0 || offset >= len(units) {
		return ""
	}
	end := min(offset+length, len(units))
	return string(utf16.Decode(units[offset:end]))
}
