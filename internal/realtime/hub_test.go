package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvFrame(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		return decodeFrame(t, raw)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Envelope{}
	}
}

func TestHubRegisterBroadcastsOnlineUsers(t *testing.T) {
	hub := NewHub(NewRegistry())
	go hub.Run()

	alice := newTestClient("alice", "s1")
	hub.register <- alice

	env := recvFrame(t, alice)
	assert.Equal(t, EventGetOnlineUsers, env.Event)

	var online []string
	require.NoError(t, json.Unmarshal(env.Data, &online))
	assert.ElementsMatch(t, []string{"alice"}, online)

	bob := newTestClient("bob", "s2")
	hub.register <- bob

	env = recvFrame(t, alice)
	require.NoError(t, json.Unmarshal(env.Data, &online))
	assert.ElementsMatch(t, []string{"alice", "bob"}, online)
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(NewRegistry())
	go hub.Run()

	alice := newTestClient("alice", "s1")
	bob := newTestClient("bob", "s2")
	hub.register <- alice
	hub.register <- bob

	// Drain the presence frames emitted on registration.
	recvFrame(t, alice)
	recvFrame(t, alice)
	recvFrame(t, bob)

	frame, err := marshalEvent(EventAddedComment, map[string]string{"content": "hi"})
	require.NoError(t, err)
	hub.Broadcast(frame)

	assert.Equal(t, EventAddedComment, recvFrame(t, alice).Event)
	assert.Equal(t, EventAddedComment, recvFrame(t, bob).Event)
}

func TestHubUnregisterClosesClientAndUpdatesPresence(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry)
	go hub.Run()

	alice := newTestClient("alice", "s1")
	bob := newTestClient("bob", "s2")
	hub.register <- alice
	hub.register <- bob
	recvFrame(t, alice)
	recvFrame(t, alice)
	recvFrame(t, bob)

	hub.unregister <- alice

	env := recvFrame(t, bob)
	assert.Equal(t, EventGetOnlineUsers, env.Event)
	var online []string
	require.NoError(t, json.Unmarshal(env.Data, &online))
	assert.ElementsMatch(t, []string{"bob"}, online)

	// Alice's send channel is closed once the disconnect is processed.
	for {
		select {
		case _, ok := <-alice.send:
			if !ok {
				_, stillOnline := registry.Lookup("alice")
				assert.False(t, stillOnline)
				return
			}
		case <-time.After(time.Second):
			t.Fatal("send channel never closed")
		}
	}
}
