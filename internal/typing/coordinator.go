// Package typing derives the local typing/stopTyping edges from keystroke
// activity and renders the remote peer's typing state.
package typing

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"mwork_chat/internal/connection"
)

const (
	// DefaultDebounce - пауза после последнего ввода, по истечении
	// которой уходит stopTyping. Только trailing edge.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultRemoteTimeout clears a remote indicator whose peer never
	// sent stopTyping (uncleanly disconnected).
	DefaultRemoteTimeout = 10 * time.Second
)

// Sender is the slice of the connection handle the coordinator needs.
type Sender interface {
	Connected() bool
	Emit(event string, payload any) bool
}

type Coordinator struct {
	sender         Sender
	conversationID string
	userID         string
	debounce       time.Duration
	remoteTimeout  time.Duration
	log            *zap.Logger

	mu          sync.Mutex
	inBurst     bool
	idleTimer   *time.Timer
	remote      bool
	remoteTimer *time.Timer
	stopped     bool
}

func NewCoordinator(sender Sender, conversationID, userID string, debounce, remoteTimeout time.Duration, log *zap.Logger) *Coordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if remoteTimeout <= 0 {
		remoteTimeout = DefaultRemoteTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		sender:         sender,
		conversationID: conversationID,
		userID:         userID,
		debounce:       debounce,
		remoteTimeout:  remoteTimeout,
		log:            log,
	}
}

// InputActivity is called on every content-edit event. The first keystroke
// of a burst emits typing once; every keystroke re-arms the trailing idle
// timer. While disconnected keystrokes are dropped silently, not queued.
func (c *Coordinator) InputActivity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || !c.sender.Connected() {
		return
	}
	if !c.inBurst {
		c.inBurst = true
		c.sender.Emit(connection.EventTyping, c.payload())
	}
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	c.idleTimer = time.AfterFunc(c.debounce, c.idleElapsed)
}

func (c *Coordinator) idleElapsed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || !c.inBurst {
		return
	}
	c.inBurst = false
	if c.sender.Connected() {
		c.sender.Emit(connection.EventStopTyping, c.payload())
	}
}

// HandleRemote applies an inbound typing or stopTyping event. Events for
// the local user are ignored.
func (c *Coordinator) HandleRemote(event, userID string) {
	if userID == c.userID {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	switch event {
	case connection.EventTyping:
		c.remote = true
		if c.remoteTimer != nil {
			c.remoteTimer.Stop()
		}
		c.remoteTimer = time.AfterFunc(c.remoteTimeout, c.remoteElapsed)
	case connection.EventStopTyping:
		c.remote = false
		if c.remoteTimer != nil {
			c.remoteTimer.Stop()
			c.remoteTimer = nil
		}
	}
}

func (c *Coordinator) remoteElapsed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote {
		c.log.Debug("clearing stale remote typing indicator",
			zap.String("conversation_id", c.conversationID))
		c.remote = false
	}
}

func (c *Coordinator) RemoteIsTyping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote
}

// Reset clears both sides without emitting anything. Called on
// conversation switch and on channel disconnect.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inBurst = false
	c.remote = false
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
	if c.remoteTimer != nil {
		c.remoteTimer.Stop()
		c.remoteTimer = nil
	}
}

// Stop permanently disables the coordinator.
func (c *Coordinator) Stop() {
	c.Reset()
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

func (c *Coordinator) payload() connection.TypingPayload {
	return connection.TypingPayload{
		ChatID: c.conversationID,
		UserID: c.userID,
	}
}
