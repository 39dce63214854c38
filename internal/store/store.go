// Package store holds the ordered, de-duplicated message sequence for the
// active conversation. It is the single source of truth the UI observes.
package store

import (
	"sync"

	"go.uber.org/zap"

	"mwork_chat/internal/models/chat"
)

// Store keeps messages in append order of arrival/creation; it never
// re-sorts by CreatedAt. Все мутации проходят через явные переходы,
// подписчики получают уведомление после каждой из них.
type Store struct {
	mu             sync.RWMutex
	conversationID string
	messages       []chat.Message
	index          map[string]int
	subs           map[int]chan struct{}
	nextSub        int
	log            *zap.Logger
}

func New(conversationID string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		conversationID: conversationID,
		index:          make(map[string]int),
		subs:           make(map[int]chan struct{}),
		log:            log,
	}
}

func (s *Store) ConversationID() string {
	return s.conversationID
}

// Append adds a message unless its id is already present.
func (s *Store) Append(msg chat.Message) bool {
	s.mu.Lock()
	if _, exists := s.index[msg.ID]; exists {
		s.mu.Unlock()
		return false
	}
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify()
	return true
}

// Upsert appends a message or, if its id is already present, merges the
// incoming status monotonically into the existing entry.
func (s *Store) Upsert(msg chat.Message) {
	s.mu.Lock()
	if i, exists := s.index[msg.ID]; exists {
		s.messages[i].Status = s.messages[i].Status.Max(msg.Status)
		s.mu.Unlock()
		s.notify()
		return
	}
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify()
}

// Replace swaps the optimistic entry oldID for the canonical msg, keeping
// the array position. If the canonical id already arrived via push, the
// optimistic entry is dropped and statuses are merged instead, so the id
// stays unique either way. The replaced entry keeps whichever status ranks
// higher, protecting delivered/read marks that outran the ack.
func (s *Store) Replace(oldID string, msg chat.Message) bool {
	s.mu.Lock()
	i, exists := s.index[oldID]
	if !exists {
		s.mu.Unlock()
		return false
	}
	if j, dup := s.index[msg.ID]; dup && j != i {
		s.messages[j].Status = s.messages[j].Status.Max(msg.Status)
		s.removeAtLocked(i)
		s.mu.Unlock()
		s.notify()
		return true
	}
	msg.Status = msg.Status.Max(s.messages[i].Status)
	delete(s.index, oldID)
	s.index[msg.ID] = i
	s.messages[i] = msg
	s.mu.Unlock()
	s.notify()
	return true
}

// ApplyStatus advances the status of one message. Updates that would move
// the status backward are ignored; so is failed, which is reachable only
// through MarkFailed.
func (s *Store) ApplyStatus(id string, status chat.MessageStatus) bool {
	s.mu.Lock()
	i, exists := s.index[id]
	if !exists || !s.messages[i].Status.CanAdvanceTo(status) || status == chat.StatusFailed {
		if exists {
			s.log.Debug("ignored non-monotonic status update",
				zap.String("message_id", id),
				zap.String("from", string(s.messages[i].Status)),
				zap.String("to", string(status)))
		}
		s.mu.Unlock()
		return false
	}
	s.messages[i].Status = status
	s.mu.Unlock()
	s.notify()
	return true
}

// MarkFailed moves a pending optimistic message to failed. The entry is
// kept so the user can inspect and retry it.
func (s *Store) MarkFailed(id string) bool {
	return s.transition(id, chat.StatusSending, chat.StatusFailed)
}

// ResetForRetry is the deliberate failed -> sending reset for a
// user-initiated retry.
func (s *Store) ResetForRetry(id string) bool {
	return s.transition(id, chat.StatusFailed, chat.StatusSending)
}

func (s *Store) transition(id string, from, to chat.MessageStatus) bool {
	s.mu.Lock()
	i, exists := s.index[id]
	if !exists || s.messages[i].Status != from {
		s.mu.Unlock()
		return false
	}
	s.messages[i].Status = to
	s.mu.Unlock()
	s.notify()
	return true
}

// Seed replaces the whole contents with the loaded backlog.
func (s *Store) Seed(msgs []chat.Message) {
	s.mu.Lock()
	s.messages = make([]chat.Message, 0, len(msgs))
	s.index = make(map[string]int, len(msgs))
	for _, msg := range msgs {
		if _, dup := s.index[msg.ID]; dup {
			continue
		}
		s.index[msg.ID] = len(s.messages)
		s.messages = append(s.messages, msg)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) Get(id string) (chat.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, exists := s.index[id]
	if !exists {
		return chat.Message{}, false
	}
	return s.messages[i], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Snapshot returns a copy of the sequence in store order.
func (s *Store) Snapshot() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chat.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Subscribe registers an observer. The channel receives a signal after
// every mutation; cancel must be called when the observer goes away.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	s.mu.Unlock()
	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) removeAtLocked(i int) {
	delete(s.index, s.messages[i].ID)
	s.messages = append(s.messages[:i], s.messages[i+1:]...)
	for k := i; k < len(s.messages); k++ {
		s.index[s.messages[k].ID] = k
	}
}
