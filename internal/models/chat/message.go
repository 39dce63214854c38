package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalIDPrefix marks optimistic messages whose id has not yet been replaced
// by the server-assigned one.
const LocalIDPrefix = "local-"

// Message - каноническое представление сообщения на клиенте.
// Все поля кроме Status неизменяемы после создания.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	SenderID       string        `json:"sender_id"`
	Content        string        `json:"content"`
	Attachments    []Attachment  `json:"attachments"`
	CreatedAt      time.Time     `json:"created_at"`
	DisplayTime    string        `json:"display_time"`
	Status         MessageStatus `json:"status"`
}

// NewLocalID returns a temporary message id for an optimistic send.
func NewLocalID() string {
	return LocalIDPrefix + uuid.New().String()
}

// IsMine derives ownership from the sender, never from the wire.
func (m Message) IsMine(localUserID string) bool {
	return m.SenderID == localUserID
}

// IsOptimistic reports whether the message still carries a temporary id.
func (m Message) IsOptimistic() bool {
	return strings.HasPrefix(m.ID, LocalIDPrefix)
}
