// Package history seeds the message store with the ordered backlog of a
// conversation, one shot per conversation selection.
package history

import (
	"context"

	"go.uber.org/zap"

	"mwork_chat/internal/api"
	"mwork_chat/internal/models/chat"
	"mwork_chat/internal/wire"
)

type Loader struct {
	api *api.Client
	log *zap.Logger
}

func NewLoader(client *api.Client, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{api: client, log: log}
}

// Load fetches and normalizes the backlog. All-or-nothing: on error the
// returned slice is nil and the caller must leave the store empty.
func (l *Loader) Load(ctx context.Context, conversationID string) ([]chat.Message, error) {
	records, err := l.api.History(ctx, conversationID)
	if err != nil {
		l.log.Warn("history load failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return nil, err
	}
	messages := make([]chat.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, wire.Normalize(record))
	}
	return messages, nil
}
