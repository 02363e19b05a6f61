package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(userID, sessionID string) *Client {
	return &Client{
		SessionID: sessionID,
		UserID:    userID,
		send:      make(chan []byte, sendBufferSize),
	}
}

func TestRegistryConnectAndLookup(t *testing.T) {
	r := NewRegistry()
	c := newTestClient("alice", "s1")

	r.Connect("alice", c)

	got, ok := r.Lookup("alice")
	assert.True(t, ok)
	assert.Same(t, c, got)
	assert.ElementsMatch(t, []string{"alice"}, r.OnlineUsers())
}

func TestRegistryReconnectReplacesSession(t *testing.T) {
	r := NewRegistry()
	old := newTestClient("alice", "s1")
	fresh := newTestClient("alice", "s2")

	r.Connect("alice", old)
	r.Connect("alice", fresh)

	got, ok := r.Lookup("alice")
	assert.True(t, ok)
	assert.Same(t, fresh, got)
	assert.Len(t, r.OnlineUsers(), 1)
}

// A disconnect arriving after the user already reconnected must not remove
// the newer session.
func TestRegistryStaleDisconnectIgnored(t *testing.T) {
	r := NewRegistry()
	old := newTestClient("alice", "s1")
	fresh := newTestClient("alice", "s2")

	r.Connect("alice", old)
	r.Connect("alice", fresh)

	removed := r.Disconnect("alice", old)
	assert.False(t, removed)

	got, ok := r.Lookup("alice")
	assert.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestRegistryDisconnectRemovesOwnSession(t *testing.T) {
	r := NewRegistry()
	c := newTestClient("alice", "s1")

	r.Connect("alice", c)
	removed := r.Disconnect("alice", c)

	assert.True(t, removed)
	_, ok := r.Lookup("alice")
	assert.False(t, ok)
	assert.Empty(t, r.OnlineUsers())
}

func TestRegistryDisconnectUnknownUser(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Disconnect("ghost", newTestClient("ghost", "s1")))
}
