package typing

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mwork_chat/internal/connection"
)

type fakeSender struct {
	mu        sync.Mutex
	connected bool
	events    []string
}

func (f *fakeSender) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSender) setConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

func (f *fakeSender) Emit(event string, payload any) bool {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	return true
}

func (f *fakeSender) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

func newTestCoordinator(sender *fakeSender, debounce, remoteTimeout time.Duration) *Coordinator {
	return NewCoordinator(sender, "c1", "u1", debounce, remoteTimeout, nil)
}

func TestCoordinator_DebounceTrailingEdge(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{connected: true}
	c := newTestCoordinator(sender, 60*time.Millisecond, time.Minute)

	// A rapid burst: every keystroke lands inside the debounce window.
	for i := 0; i < 8; i++ {
		c.InputActivity()
		time.Sleep(5 * time.Millisecond)
	}

	// Mid-burst there is exactly one typing and no stopTyping yet.
	assert.Equal(t, []string{connection.EventTyping}, sender.snapshot())

	// After the idle window only the trailing stopTyping fires.
	require.Eventually(t, func() bool {
		events := sender.snapshot()
		return len(events) == 2 && events[1] == connection.EventStopTyping
	}, time.Second, 10*time.Millisecond)

	// Silence produces nothing further.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, sender.snapshot(), 2)
}

func TestCoordinator_NewBurstAfterIdle(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{connected: true}
	c := newTestCoordinator(sender, 30*time.Millisecond, time.Minute)

	c.InputActivity()
	require.Eventually(t, func() bool { return len(sender.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	c.InputActivity()
	require.Eventually(t, func() bool { return len(sender.snapshot()) == 4 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{
		connection.EventTyping, connection.EventStopTyping,
		connection.EventTyping, connection.EventStopTyping,
	}, sender.snapshot())
}

func TestCoordinator_DroppedWhileDisconnected(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{connected: false}
	c := newTestCoordinator(sender, 20*time.Millisecond, time.Minute)

	c.InputActivity()
	c.InputActivity()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, sender.snapshot(), "keystrokes while disconnected are dropped, not queued")
}

func TestCoordinator_StopTypingSuppressedIfDisconnectedAtTrailingEdge(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{connected: true}
	c := newTestCoordinator(sender, 30*time.Millisecond, time.Minute)

	c.InputActivity()
	sender.setConnected(false)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []string{connection.EventTyping}, sender.snapshot())
}

func TestCoordinator_RemoteTypingState(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{connected: true}
	c := newTestCoordinator(sender, time.Minute, time.Minute)

	assert.False(t, c.RemoteIsTyping())

	c.HandleRemote(connection.EventTyping, "u2")
	assert.True(t, c.RemoteIsTyping())

	c.HandleRemote(connection.EventStopTyping, "u2")
	assert.False(t, c.RemoteIsTyping())

	// Events attributed to the local user are ignored.
	c.HandleRemote(connection.EventTyping, "u1")
	assert.False(t, c.RemoteIsTyping())
}

func TestCoordinator_StaleRemoteIndicatorTimesOut(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{connected: true}
	c := newTestCoordinator(sender, time.Minute, 40*time.Millisecond)

	// Peer starts typing and disconnects uncleanly - no stopTyping ever
	// arrives.
	c.HandleRemote(connection.EventTyping, "u2")
	assert.True(t, c.RemoteIsTyping())

	require.Eventually(t, func() bool { return !c.RemoteIsTyping() }, time.Second, 5*time.Millisecond)
}

func TestCoordinator_ResetClearsBothSides(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{connected: true}
	c := newTestCoordinator(sender, time.Minute, time.Minute)

	c.InputActivity()
	c.HandleRemote(connection.EventTyping, "u2")
	require.True(t, c.RemoteIsTyping())

	c.Reset()
	assert.False(t, c.RemoteIsTyping())

	// The cancelled burst must not fire a trailing stopTyping.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{connection.EventTyping}, sender.snapshot())
}
