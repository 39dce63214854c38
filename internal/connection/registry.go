package connection

import (
	"context"
	"net/url"
	"sync"
)

// Registry keys every live channel by purpose and room, so a notification
// socket and per-chat sockets never share state or leak events into each
// other. Each handle is an owned value with its own lifecycle.
type Registry struct {
	baseURL string
	userID  string
	opts    Options

	mu      sync.Mutex
	handles map[string]*Handle
}

func NewRegistry(baseURL, userID string, opts Options) *Registry {
	return &Registry{
		baseURL: baseURL,
		userID:  userID,
		opts:    opts,
		handles: make(map[string]*Handle),
	}
}

// Open replaces any existing handle under the same purpose/room key with a
// fresh one.
func (r *Registry) Open(ctx context.Context, purpose, room string, sink Sink) *Handle {
	key := purpose + "/" + room
	r.mu.Lock()
	if old, ok := r.handles[key]; ok {
		old.Close()
	}
	h := Open(ctx, r.endpoint(), room, sink, r.opts)
	r.handles[key] = h
	r.mu.Unlock()
	return h
}

// Close shuts down one handle and forgets it.
func (r *Registry) Close(purpose, room string) {
	key := purpose + "/" + room
	r.mu.Lock()
	if h, ok := r.handles[key]; ok {
		h.Close()
		delete(r.handles, key)
	}
	r.mu.Unlock()
}

// CloseAll shuts down every handle the registry owns.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	for key, h := range r.handles {
		h.Close()
		delete(r.handles, key)
	}
	r.mu.Unlock()
}

// endpoint appends the user identity the server expects as a query param.
func (r *Registry) endpoint() string {
	if r.userID == "" {
		return r.baseURL
	}
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return r.baseURL
	}
	q := u.Query()
	q.Set("user_id", r.userID)
	u.RawQuery = q.Encode()
	return u.String()
}
