package realtime

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/orbitlabs/orbit/backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Client is one live websocket session bound to a user identity. SessionID
// distinguishes it from later sessions of the same user so stale disconnects
// are ignored by the presence registry.
type Client struct {
	SessionID string
	UserID    string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// enqueue hands a frame to the write pump without blocking. A full buffer
// means the reader is too slow; the frame is dropped and the caller decides
// whether that matters.
func (c *Client) enqueue(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// readPump reads inbound frames and routes them through the gateway. It
// owns the connection's read side; on any read error the client unregisters.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Get().Debug("websocket read error", zap.String("user", c.UserID), zap.Error(err))
			}
			return
		}
		c.hub.route(c, raw)
	}
}

// writePump serializes all writes to the connection: frames from the send
// channel plus keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
