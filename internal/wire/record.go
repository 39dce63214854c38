// Package wire reconciles the two message shapes the server transmits -
// the historical REST record and the live push event - into the canonical
// client model.
package wire

import "encoding/json"

// Record is the union of both wire shapes. A historical record carries
// content/sentAt/isRead; a push event carries message/timestamp and no
// isRead. Pointer fields distinguish "absent" from "empty".
type Record struct {
	ID             string          `json:"id"`
	ChatID         string          `json:"chatId"`
	ConversationID string          `json:"conversationId"`
	SenderID       string          `json:"senderId"`
	Content        *string         `json:"content"`
	Message        *string         `json:"message"`
	SentAt         string          `json:"sentAt"`
	Timestamp      string          `json:"timestamp"`
	CreatedAt      string          `json:"createdAt"`
	IsRead         bool            `json:"isRead"`
	Attachments    []RawAttachment `json:"attachments"`
}

// RawAttachment is an attachment as transmitted by either shape.
type RawAttachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Decode parses a raw JSON payload into a Record. Unknown fields are
// ignored; a decode error only occurs on structurally invalid JSON.
func Decode(data []byte) (Record, error) {
	var r Record
	err := json.Unmarshal(data, &r)
	return r, err
}

// Conversation returns the conversation id, whichever field carried it.
func (r Record) Conversation() string {
	if r.ChatID != "" {
		return r.ChatID
	}
	return r.ConversationID
}
