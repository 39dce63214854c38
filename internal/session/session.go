// Package session owns everything per active conversation: the message
// store, the connection handle, the typing state and the delivery
// coordinator. Switching conversations discards the lot and starts fresh;
// results of in-flight work for the old conversation are discarded on
// arrival.
package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"mwork_chat/internal/api"
	"mwork_chat/internal/attachments"
	"mwork_chat/internal/config"
	"mwork_chat/internal/connection"
	"mwork_chat/internal/delivery"
	"mwork_chat/internal/history"
	"mwork_chat/internal/models/chat"
	"mwork_chat/internal/store"
	"mwork_chat/internal/typing"
	"mwork_chat/internal/wire"
	"mwork_chat/pkg/apperrors"
)

// purposeChat keys per-conversation channels in the connection registry,
// separate from any future notification channel.
const purposeChat = "chat"

type Session struct {
	cfg      *config.Config
	log      *zap.Logger
	api      *api.Client
	registry *connection.Registry
	loader   *history.Loader
	pipeline *attachments.Pipeline
	userID   string

	mu            sync.Mutex
	epoch         int
	conversation  chat.Conversation
	st            *store.Store
	typing        *typing.Coordinator
	delivery      *delivery.Coordinator
	handle        *connection.Handle
	cancelConn    func()
	histErr       error
	everConnected bool
}

// New wires a session from the config. The api client and registry are
// shared across conversation switches; everything else is per switch.
func New(cfg *config.Config, userID string, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	apiClient := api.NewClient(cfg.Server.APIBaseURL, cfg.Server.Token, http.DefaultClient, log)
	registry := connection.NewRegistry(cfg.Server.WSBaseURL, userID, connection.Options{
		Attempts: cfg.Chat.ReconnectAttempts,
		Delay:    cfg.ReconnectDelay(),
		Log:      log,
	})
	return NewWith(cfg, userID, apiClient, registry, log)
}

// NewWith - точка внедрения зависимостей для тестов и встраивания.
func NewWith(cfg *config.Config, userID string, apiClient *api.Client, registry *connection.Registry, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		cfg:      cfg,
		log:      log,
		api:      apiClient,
		registry: registry,
		loader:   history.NewLoader(apiClient, log),
		pipeline: attachments.NewPipeline(apiClient, cfg.Upload.MaxSize, log),
		userID:   userID,
	}
}

// Switch makes conv the active conversation: the previous store and typing
// state are discarded, a fresh channel is opened and joined, and the
// backlog load is kicked off. Late results for the previous conversation
// can no longer touch the new state.
func (s *Session) Switch(ctx context.Context, conv chat.Conversation) {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	if s.cancelConn != nil {
		s.cancelConn()
		s.cancelConn = nil
	}
	if s.typing != nil {
		s.typing.Stop()
	}
	if s.handle != nil {
		s.handle.Close()
	}

	s.conversation = conv
	s.histErr = nil
	s.everConnected = false
	s.st = store.New(conv.ID, s.log)
	handle := s.registry.Open(ctx, purposeChat, conv.ID, s.sink(epoch))
	s.handle = handle
	s.typing = typing.NewCoordinator(handle, conv.ID, s.userID,
		s.cfg.TypingDebounce(), s.cfg.RemoteTypingTimeout(), s.log)
	s.delivery = delivery.NewCoordinator(s.api, s.pipeline, s.st, s.userID, handle.Connected, s.log)
	s.cancelConn = handle.OnConnectionChange(func(connected bool) {
		s.onConnectionChange(epoch, connected)
	})
	s.mu.Unlock()

	go s.loadHistory(ctx, epoch, conv.ID)
}

// Close tears down the active conversation, if any.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	if s.cancelConn != nil {
		s.cancelConn()
		s.cancelConn = nil
	}
	if s.typing != nil {
		s.typing.Stop()
	}
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
}

// SendMessage runs the optimistic send path and returns the message id
// (temporary until the ack replaces it). The store reflects the outcome
// either way; the error is for callers that want to log it.
func (s *Session) SendMessage(ctx context.Context, content string, previews []attachments.LocalPreview) (string, error) {
	s.mu.Lock()
	d := s.delivery
	s.mu.Unlock()
	if d == nil {
		return "", apperrors.ErrInvalidOperation("send", "no active conversation")
	}
	return d.Send(ctx, delivery.SendInput{Content: content, Previews: previews})
}

// RetryMessage re-sends a failed message.
func (s *Session) RetryMessage(ctx context.Context, messageID string) error {
	s.mu.Lock()
	d := s.delivery
	s.mu.Unlock()
	if d == nil {
		return apperrors.ErrInvalidOperation("send", "no active conversation")
	}
	return d.Retry(ctx, messageID)
}

// SelectFile builds a local attachment preview without any network I/O.
func (s *Session) SelectFile(name string, data io.Reader) (attachments.LocalPreview, error) {
	return s.pipeline.Select(name, data)
}

// InputActivity forwards a content-edit event to the typing coordinator.
func (s *Session) InputActivity() {
	s.mu.Lock()
	t := s.typing
	s.mu.Unlock()
	if t != nil {
		t.InputActivity()
	}
}

func (s *Session) Store() *store.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

func (s *Session) Conversation() chat.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversation
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()
	return h != nil && h.Connected()
}

func (s *Session) RemoteIsTyping() bool {
	s.mu.Lock()
	t := s.typing
	s.mu.Unlock()
	return t != nil && t.RemoteIsTyping()
}

// HistoryErr surfaces a failed backlog load as a retryable
// conversation-level error; the store stays empty in that case.
func (s *Session) HistoryErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.histErr
}

func (s *Session) loadHistory(ctx context.Context, epoch int, conversationID string) {
	messages, err := s.loader.Load(ctx, conversationID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		// The user switched away while the fetch was in flight.
		s.log.Debug("discarding stale history result",
			zap.String("conversation_id", conversationID))
		return
	}
	if err != nil {
		s.histErr = err
		return
	}
	s.histErr = nil
	s.st.Seed(messages)
}

// sink routes inbound frames for one epoch. Frames are processed in
// arrival order; the store's monotonic-status rule is the sole defense
// against delivery races.
func (s *Session) sink(epoch int) connection.Sink {
	return func(frame connection.Frame) {
		s.mu.Lock()
		if epoch != s.epoch {
			s.mu.Unlock()
			return
		}
		st := s.st
		ty := s.typing
		conversationID := s.conversation.ID
		s.mu.Unlock()

		switch frame.Event {
		case connection.EventReceiveMessage:
			record, err := wire.Decode(frame.Data)
			if err != nil {
				s.log.Warn("unparseable receiveMessage payload", zap.Error(err))
				return
			}
			msg := wire.Normalize(record)
			if msg.ConversationID != "" && msg.ConversationID != conversationID {
				return
			}
			if msg.ID == "" {
				s.log.Warn("push message without id dropped")
				return
			}
			if msg.ConversationID == "" {
				msg.ConversationID = conversationID
			}
			st.Upsert(msg)

		case connection.EventTyping, connection.EventStopTyping:
			var payload connection.TypingPayload
			if err := json.Unmarshal(frame.Data, &payload); err != nil {
				return
			}
			if payload.ChatID != "" && payload.ChatID != conversationID {
				return
			}
			ty.HandleRemote(frame.Event, payload.UserID)

		case connection.EventMessageStatusUpdate:
			var payload connection.StatusUpdatePayload
			if err := json.Unmarshal(frame.Data, &payload); err != nil {
				return
			}
			status := chat.MessageStatus(payload.Status)
			if !status.Valid() {
				s.log.Warn("unknown message status", zap.String("status", payload.Status))
				return
			}
			st.ApplyStatus(payload.MessageID, status)

		default:
			s.log.Debug("unhandled channel event", zap.String("event", frame.Event))
		}
	}
}

func (s *Session) onConnectionChange(epoch int, connected bool) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return
	}
	ty := s.typing
	conversationID := s.conversation.ID
	first := !s.everConnected
	if connected {
		s.everConnected = true
	}
	s.mu.Unlock()

	if !connected {
		// Remote typing state is meaningless across a gap.
		ty.Reset()
		return
	}
	if !first && s.cfg.Chat.ResyncOnReconnect {
		go s.loadHistory(context.Background(), epoch, conversationID)
	}
}
