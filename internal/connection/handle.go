// Package connection owns the live push channel of the active conversation:
// dial, explicit room join, disconnect detection and bounded reconnection
// with re-join. Transport errors are absorbed into the connected flag and
// logged; they are never surfaced to UI code paths.
package connection

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultAttempts  = 5
	defaultDelay     = time.Second
	sendBufferSize   = 256
	writeWaitTimeout = 10 * time.Second
)

// Options configures the reconnect policy of a Handle.
type Options struct {
	// Attempts is the bounded number of dial attempts per disconnect.
	Attempts int
	// Delay is the fixed pause between attempts. Без экспоненциального
	// backoff: документированное упрощение, а не гарантия.
	Delay  time.Duration
	Dialer *websocket.Dialer
	Log    *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Attempts <= 0 {
		o.Attempts = defaultAttempts
	}
	if o.Delay <= 0 {
		o.Delay = defaultDelay
	}
	if o.Dialer == nil {
		o.Dialer = websocket.DefaultDialer
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

// Handle is one owned channel for one conversation's room. Room membership
// does not survive a transport reconnect, so joinChat is re-emitted after
// every successful redial.
type Handle struct {
	url            string
	conversationID string
	opts           Options
	sink           Sink
	log            *zap.Logger

	connected atomic.Bool
	send      chan outboundFrame
	done      chan struct{}
	closeOnce sync.Once

	mu           sync.Mutex
	conn         *websocket.Conn
	listeners    map[int]func(bool)
	nextListener int
}

// Open establishes the channel and joins the conversation's room. The
// handle is always returned; dial failures show up as Connected()==false.
func Open(ctx context.Context, url, conversationID string, sink Sink, opts Options) *Handle {
	opts = opts.withDefaults()
	h := &Handle{
		url:            url,
		conversationID: conversationID,
		opts:           opts,
		sink:           sink,
		log:            opts.Log.With(zap.String("conversation_id", conversationID)),
		send:           make(chan outboundFrame, sendBufferSize),
		done:           make(chan struct{}),
		listeners:      make(map[int]func(bool)),
	}
	go h.run(ctx)
	return h
}

func (h *Handle) ConversationID() string {
	return h.conversationID
}

// Connected is the single boolean the UI and the typing coordinator
// consume.
func (h *Handle) Connected() bool {
	return h.connected.Load()
}

// OnConnectionChange registers a listener for connected transitions and
// returns its cancel func.
func (h *Handle) OnConnectionChange(fn func(bool)) func() {
	h.mu.Lock()
	id := h.nextListener
	h.nextListener++
	h.listeners[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// Emit queues an outbound event. While disconnected the event is dropped
// with a log entry, not queued.
func (h *Handle) Emit(event string, payload any) bool {
	if !h.connected.Load() {
		h.log.Debug("emit dropped while disconnected", zap.String("event", event))
		return false
	}
	select {
	case h.send <- outboundFrame{Event: event, Data: payload}:
		return true
	case <-h.done:
		return false
	default:
		h.log.Warn("send buffer full, dropping event", zap.String("event", event))
		return false
	}
}

// Close stops the pumps and the reconnect loop. Idempotent.
func (h *Handle) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		if h.conn != nil {
			h.conn.Close()
		}
		h.mu.Unlock()
	})
}

func (h *Handle) run(ctx context.Context) {
	for {
		conn := h.dial(ctx)
		if conn == nil {
			// Exhaustion is recoverable only by a fresh Open.
			h.setConnected(false)
			return
		}
		h.mu.Lock()
		h.conn = conn
		h.mu.Unlock()
		h.setConnected(true)

		// Join is not implicit in connecting: сервер должен знать,
		// в какую комнату маршрутизировать события.
		h.Emit(EventJoinChat, JoinPayload{ChatID: h.conversationID})

		stopWrite := make(chan struct{})
		go h.writePump(conn, stopWrite)
		h.readPump(conn)
		close(stopWrite)
		conn.Close()
		h.setConnected(false)
		h.drainSend()

		select {
		case <-h.done:
			return
		case <-ctx.Done():
			return
		default:
		}
		h.log.Info("connection lost, reconnecting")
	}
}

func (h *Handle) dial(ctx context.Context) *websocket.Conn {
	for attempt := 1; attempt <= h.opts.Attempts; attempt++ {
		select {
		case <-h.done:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}
		conn, _, err := h.opts.Dialer.DialContext(ctx, h.url, nil)
		if err == nil {
			return conn
		}
		h.log.Warn("websocket dial failed",
			zap.Int("attempt", attempt),
			zap.Int("attempts", h.opts.Attempts),
			zap.Error(err))
		if attempt == h.opts.Attempts {
			break
		}
		select {
		case <-time.After(h.opts.Delay):
		case <-h.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
	h.log.Warn("reconnect attempts exhausted")
	return nil
}

func (h *Handle) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-h.done:
			default:
				h.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.log.Warn("failed to parse frame", zap.Error(err))
			continue
		}
		if h.sink != nil {
			h.sink(frame)
		}
	}
}

func (h *Handle) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	for {
		select {
		case frame := <-h.send:
			conn.SetWriteDeadline(time.Now().Add(writeWaitTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				h.log.Warn("websocket write error", zap.Error(err))
				conn.Close()
				return
			}
		case <-stop:
			return
		case <-h.done:
			return
		}
	}
}

// drainSend drops frames queued for a dead connection so they are not
// replayed ahead of the next join.
func (h *Handle) drainSend() {
	for {
		select {
		case <-h.send:
		default:
			return
		}
	}
}

func (h *Handle) setConnected(v bool) {
	if h.connected.Swap(v) == v {
		return
	}
	h.mu.Lock()
	fns := make([]func(bool), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}
