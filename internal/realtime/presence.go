package realtime

import "sync"

// Registry maps a user identity to its single live session. At most one
// session per user; a reconnect replaces the prior session silently (the old
// connection is already closed or about to be). All access goes through
// these four operations, never through the map directly.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Client
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Client)}
}

// Connect records the mapping, replacing any prior session for the user.
func (r *Registry) Connect(userID string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = client
}

// Disconnect removes the mapping only if it still points at the caller's own
// session, so a late disconnect never clobbers a newer session for the same
// user. Reports whether the mapping was removed.
func (r *Registry) Disconnect(userID string, client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[userID]
	if !ok || current.SessionID != client.SessionID {
		return false
	}
	delete(r.sessions, userID)
	return true
}

// Lookup returns the current session for the user, if any.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.sessions[userID]
	return client, ok
}

// OnlineUsers returns a snapshot of currently connected user identities.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		users = append(users, id)
	}
	return users
}
