package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parley-chat/parley/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is one WebSocket connection tracked by the hub.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	closed bool // guarded by hub.mu
}

func newClient(id string, conn *websocket.Conn, h *Hub) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		hub:  h,
	}
}

// readPump decodes inbound frames and forwards them to the hub loop. It
// unregisters the client when the connection drops.
func (c *Client) readPump() {
	defer func() {
		// The run loop may already be gone during shutdown.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("conn_id", c.id).Msg("websocket read error")
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.hub.logger.Debug().Err(err).Str("conn_id", c.id).Msg("discarding malformed frame")
			continue
		}
		select {
		case c.hub.events <- inbound{client: c, env: env}:
		case <-c.hub.ctx.Done():
			return
		}
	}
}

// writePump writes queued frames and keepalive pings. It exits when the send
// channel is closed by the hub or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
