// Package hub manages WebSocket connections: upgrades, per-client read and
// write pumps, and delivery of outbound event frames. Decoded inbound events
// are handed to a single Handler on the hub's run loop, one at a time, so
// event handlers never interleave.
package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/metrics"
	"github.com/parley-chat/parley/internal/models"
)

// Handler receives decoded inbound events and disconnect notifications.
// Calls are serialized on the hub's run loop.
type Handler interface {
	HandleEvent(connID string, env models.Envelope)
	HandleDisconnect(connID string)
}

type inbound struct {
	client *Client
	env    models.Envelope
}

// Hub tracks all connected clients keyed by connection identifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	events     chan inbound

	handler  Handler
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a hub that accepts WebSocket upgrades from the given origin.
// An empty Origin header (non-browser clients) is always accepted; "*"
// accepts any origin.
func New(allowedOrigin string, logger zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan inbound, 256),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
	}
}

// SetHandler installs the event handler. Must be called before Run.
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

// ServeWS upgrades an HTTP request to a WebSocket connection and registers
// the resulting client under a fresh connection identifier.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	h.register <- newClient(uuid.NewString(), conn, h)
}

// Run is the hub's main loop. All event handling happens here, so no two
// handlers ever run concurrently. Call in its own goroutine.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.closeClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()

			metrics.ConnectedClients.Set(float64(n))
			h.logger.Info().Str("conn_id", c.id).Int("clients", n).Msg("client connected")

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				c.writePump()
			}()
			go func() {
				defer h.wg.Done()
				c.readPump()
			}()

		case c := <-h.unregister:
			h.drop(c)

		case in := <-h.events:
			if h.handler != nil {
				h.handler.HandleEvent(in.client.id, in.env)
			}
		}
	}
}

// drop removes a client, closes its send channel, and notifies the handler.
// Calling it again for the same client is a no-op. Runs on the hub loop,
// either directly or via the unregister channel.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	c.closed = true
	n := len(h.clients)
	h.mu.Unlock()

	close(c.send)
	metrics.ConnectedClients.Set(float64(n))
	h.logger.Info().Str("conn_id", c.id).Int("clients", n).Msg("client disconnected")

	if h.handler != nil {
		h.handler.HandleDisconnect(c.id)
	}
}

// trySend queues a frame for a client without blocking. It reports false if
// the client is gone or its send buffer is full.
func (h *Hub) trySend(c *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c.id]; !ok || c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.Envelope{Event: event, Data: raw})
}

// Broadcast delivers an event to every connected client. Clients whose send
// buffer is full are dropped.
func (h *Hub) Broadcast(event string, data any) {
	payload, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("encoding broadcast failed")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var stale []*Client
	for _, c := range targets {
		if !h.trySend(c, payload) {
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		h.drop(c)
	}
}

// SendTo delivers an event to a single connection. Delivery is best-effort:
// an unknown connection identifier is silently ignored.
func (h *Hub) SendTo(connID, event string, data any) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("encoding send failed")
		return
	}
	if !h.trySend(c, payload) {
		h.drop(c)
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeClients() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
		h.drop(c)
	}
	h.logger.Info().Int("clients", len(clients)).Msg("closed client connections")
}

// Shutdown stops the run loop, closes all connections, and waits for client
// goroutines to finish or the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}
