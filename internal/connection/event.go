package connection

import "encoding/json"

// Имена событий push-канала, общие для обоих направлений.
const (
	EventJoinChat            = "joinChat"
	EventReceiveMessage      = "receiveMessage"
	EventTyping              = "typing"
	EventStopTyping          = "stopTyping"
	EventMessageStatusUpdate = "messageStatusUpdate"
)

// Frame is one inbound channel event: a name plus its raw payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// JoinPayload subscribes the connection to a conversation's room.
type JoinPayload struct {
	ChatID string `json:"chatId"`
}

// TypingPayload carries both typing and stopTyping in either direction.
type TypingPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// StatusUpdatePayload reports a delivery-state change for one message.
type StatusUpdatePayload struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// Sink receives inbound frames in arrival order. It is called from the
// read pump, so it must not block for long.
type Sink func(Frame)
