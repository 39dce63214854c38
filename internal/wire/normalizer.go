package wire

import (
	"time"

	"mwork_chat/internal/models/chat"
)

// PlaceholderTime is shown for messages whose wire timestamp failed to
// parse; a malformed timestamp must never drop a message.
const PlaceholderTime = "--:--"

// displayLayout renders a parsed timestamp for the message list.
const displayLayout = "15:04"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Normalize converts either wire shape into the canonical Message.
// Полностью тотальная функция: никогда не возвращает ошибку и не паникует.
func Normalize(r Record) chat.Message {
	msg := chat.Message{
		ID:             r.ID,
		ConversationID: r.Conversation(),
		SenderID:       r.SenderID,
		Content:        resolveContent(r),
		Status:         chat.StatusDelivered,
		DisplayTime:    PlaceholderTime,
	}

	if r.IsRead {
		msg.Status = chat.StatusRead
	}

	if t, ok := parseTimestamp(firstNonEmpty(r.SentAt, r.Timestamp, r.CreatedAt)); ok {
		msg.CreatedAt = t
		msg.DisplayTime = t.Format(displayLayout)
	}

	for _, raw := range r.Attachments {
		if raw.URL == "" {
			continue
		}
		msg.Attachments = append(msg.Attachments, chat.Attachment{
			Kind:      chat.KindForName(raw.URL),
			URL:       raw.URL,
			Name:      raw.Name,
			SizeLabel: chat.FormatSize(raw.Size),
		})
	}

	return msg
}

// resolveContent implements content ?? message ?? "".
func resolveContent(r Record) string {
	if r.Content != nil {
		return *r.Content
	}
	if r.Message != nil {
		return *r.Message
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
