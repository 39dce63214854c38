// Package delivery drives the per-message state machine: optimistic send,
// server ack, failure and user-initiated retry.
package delivery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mwork_chat/internal/attachments"
	"mwork_chat/internal/models/chat"
	"mwork_chat/internal/store"
	"mwork_chat/internal/wire"
	"mwork_chat/pkg/apperrors"
)

// Sender is the slice of the api client the coordinator needs.
type Sender interface {
	Send(ctx context.Context, conversationID, content string, atts []chat.Attachment) (wire.Record, error)
}

// Committer turns a local preview into a durable attachment.
type Committer interface {
	Commit(ctx context.Context, preview attachments.LocalPreview) (chat.Attachment, error)
}

// SendInput carries one user submit.
type SendInput struct {
	Content  string
	Previews []attachments.LocalPreview
}

// pendingSend keeps everything needed to retry a failed message with the
// same content and attachments.
type pendingSend struct {
	content   string
	previews  []attachments.LocalPreview
	committed []chat.Attachment
}

type Coordinator struct {
	sender    Sender
	committer Committer
	store     *store.Store
	userID    string
	connected func() bool
	log       *zap.Logger

	mu      sync.Mutex
	pending map[string]*pendingSend
}

func NewCoordinator(sender Sender, committer Committer, st *store.Store, userID string, connected func() bool, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		sender:    sender,
		committer: committer,
		store:     st,
		userID:    userID,
		connected: connected,
		log:       log,
		pending:   make(map[string]*pendingSend),
	}
}

// Send appends the optimistic message and runs the send path. The message
// is visible in the store with status sending before any network I/O; on
// failure it stays there as failed. The returned id is the temporary one
// until the ack replaces it.
func (d *Coordinator) Send(ctx context.Context, input SendInput) (string, error) {
	now := time.Now()
	msg := chat.Message{
		ID:             chat.NewLocalID(),
		ConversationID: d.store.ConversationID(),
		SenderID:       d.userID,
		Content:        input.Content,
		CreatedAt:      now,
		DisplayTime:    now.Format("15:04"),
		Status:         chat.StatusSending,
	}
	for _, preview := range input.Previews {
		msg.Attachments = append(msg.Attachments, chat.Attachment{
			Kind:      preview.Kind,
			Name:      preview.Name,
			SizeLabel: preview.SizeLabel,
		})
	}
	d.store.Append(msg)

	d.mu.Lock()
	d.pending[msg.ID] = &pendingSend{
		content:  input.Content,
		previews: input.Previews,
	}
	d.mu.Unlock()

	return msg.ID, d.dispatch(ctx, msg.ID)
}

// Retry re-invokes the send path for a failed message with the same
// content and attachments. Explicit failed -> sending reset, not a
// rollback.
func (d *Coordinator) Retry(ctx context.Context, messageID string) error {
	msg, ok := d.store.Get(messageID)
	if !ok {
		return apperrors.ErrInvalidOperation("send", "unknown message "+messageID)
	}
	if msg.Status != chat.StatusFailed {
		return apperrors.ErrInvalidOperation("send", "only failed messages can be retried")
	}
	d.store.ResetForRetry(messageID)

	d.mu.Lock()
	if _, ok := d.pending[messageID]; !ok {
		// Failed entry restored from elsewhere; rebuild from the store.
		d.pending[messageID] = &pendingSend{
			content:   msg.Content,
			committed: committedOnly(msg.Attachments),
		}
	}
	d.mu.Unlock()

	return d.dispatch(ctx, messageID)
}

func (d *Coordinator) dispatch(ctx context.Context, messageID string) error {
	d.mu.Lock()
	p := d.pending[messageID]
	d.mu.Unlock()
	if p == nil {
		return apperrors.ErrInvalidOperation("send", "no pending send for "+messageID)
	}

	if d.connected != nil && !d.connected() {
		d.store.MarkFailed(messageID)
		return apperrors.NewSendFailure(nil, "cannot send while disconnected")
	}

	// Attachments first: an upload failure fails the enclosing send,
	// никогда не отправляем текст без вложений молча.
	for len(p.committed) < len(p.previews) {
		att, err := d.committer.Commit(ctx, p.previews[len(p.committed)])
		if err != nil {
			d.store.MarkFailed(messageID)
			return apperrors.NewSendFailure(err, "attachment upload failed")
		}
		d.mu.Lock()
		p.committed = append(p.committed, att)
		d.mu.Unlock()
	}

	record, err := d.sender.Send(ctx, d.store.ConversationID(), p.content, p.committed)
	if err != nil {
		d.store.MarkFailed(messageID)
		d.log.Warn("send failed", zap.String("message_id", messageID), zap.Error(err))
		return err
	}

	canonical := wire.Normalize(record)
	if canonical.ID == "" {
		d.store.MarkFailed(messageID)
		return apperrors.NewSendFailure(nil, "ack missing canonical message id")
	}
	// An ack means sent, not delivered; only an explicit read state from
	// the server moves it further. Later-arriving acks never regress a
	// delivered/read mark - Replace keeps the higher status.
	if !record.IsRead {
		canonical.Status = chat.StatusSent
	}
	if canonical.ConversationID == "" {
		canonical.ConversationID = d.store.ConversationID()
	}
	if canonical.SenderID == "" {
		canonical.SenderID = d.userID
	}
	d.store.Replace(messageID, canonical)

	d.mu.Lock()
	delete(d.pending, messageID)
	d.mu.Unlock()
	return nil
}

func committedOnly(atts []chat.Attachment) []chat.Attachment {
	out := make([]chat.Attachment, 0, len(atts))
	for _, a := range atts {
		if a.URL != "" {
			out = append(out, a)
		}
	}
	return out
}
