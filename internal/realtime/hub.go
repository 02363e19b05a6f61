package realtime

import (
	"go.uber.org/zap"

	"github.com/orbitlabs/orbit/backend/pkg/logger"
	"github.com/orbitlabs/orbit/backend/pkg/metrics"
)

// Hub owns the set of connected clients and the presence registry. All
// connect/disconnect bookkeeping funnels through its run loop so the client
// set has a single writer; payload delivery itself happens on each client's
// send channel.
type Hub struct {
	registry *Registry

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	// handler routes inbound frames; assigned by the gateway before Run.
	handler func(*Client, []byte)
}

// NewHub creates a hub around the given presence registry.
func NewHub(registry *Registry) *Hub {
	return &Hub{
		registry:   registry,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
	}
}

// Run processes registrations, disconnects and broadcasts until the process
// exits. Start it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.registry.Connect(client.UserID, client)
			metrics.WSConnections.Inc()
			logger.Get().Info("client connected",
				zap.String("user", client.UserID), zap.String("session", client.SessionID))
			h.broadcastOnlineUsers()

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WSConnections.Dec()
				h.registry.Disconnect(client.UserID, client)
				logger.Get().Info("client disconnected",
					zap.String("user", client.UserID), zap.String("session", client.SessionID))
				h.broadcastOnlineUsers()
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				if !client.enqueue(message) {
					logger.Get().Warn("broadcast dropped for slow client",
						zap.String("user", client.UserID))
				}
			}
		}
	}
}

// Broadcast sends one already-marshaled frame to every connected client.
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

func (h *Hub) route(c *Client, raw []byte) {
	if h.handler != nil {
		h.handler(c, raw)
	}
}

func (h *Hub) broadcastOnlineUsers() {
	frame, err := marshalEvent(EventGetOnlineUsers, h.registry.OnlineUsers())
	if err != nil {
		logger.Get().Error("marshaling online users", zap.Error(err))
		return
	}
	for client := range h.clients {
		client.enqueue(frame)
	}
}
