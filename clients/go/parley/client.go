// Package parley is a small Go client for the Parley chat relay. It speaks
// the relay's JSON event envelope over a WebSocket connection and reconnects
// a bounded number of times, with a fixed delay, when the connection drops.
package parley

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message mirrors the relay's wire form of a chat message.
type Message struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	SenderID  string `json:"senderId"`
	Body      string `json:"message"`
	Timestamp string `json:"timestamp"`
	IsPrivate bool   `json:"isPrivate,omitempty"`
}

// User mirrors the relay's presence record.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Config controls the connection and reconnect behavior.
type Config struct {
	URL        string        // WebSocket endpoint, e.g. "ws://localhost:8080/ws"
	Origin     string        // optional Origin header
	MaxRetries int           // reconnect attempts after a lost connection (default 5)
	RetryDelay time.Duration // fixed delay between attempts (default 2s)
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	return c
}

// Client is a connection to the relay. Event callbacks run on the client's
// read goroutine; keep them short.
type Client struct {
	cfg Config

	writeMu sync.Mutex
	conn    *websocket.Conn

	handlersMu sync.RWMutex
	handlers   map[string]func(json.RawMessage)

	closing bool
	done    chan struct{}
}

// New creates a client. Call Connect to open the connection.
func New(cfg Config) *Client {
	return &Client{
		cfg:      cfg.withDefaults(),
		handlers: make(map[string]func(json.RawMessage)),
		done:     make(chan struct{}),
	}
}

// Connect dials the relay and starts the read loop.
func (c *Client) Connect() error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	c.conn = conn
	go c.readLoop()
	return nil
}

func (c *Client) dial() (*websocket.Conn, error) {
	var header http.Header
	if c.cfg.Origin != "" {
		header = http.Header{"Origin": []string{c.cfg.Origin}}
	}
	conn, _, err := websocket.DefaultDialer.Dial(c.cfg.URL, header)
	return conn, err
}

// Done is closed once the client has given up: either Close was called or
// every reconnect attempt failed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down without reconnecting.
func (c *Client) Close() error {
	c.writeMu.Lock()
	c.closing = true
	conn := c.conn
	c.writeMu.Unlock()

	if conn == nil {
		return nil
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return conn.Close()
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.writeMu.Lock()
			closing := c.closing
			c.writeMu.Unlock()
			if closing || !c.reconnect() {
				return
			}
			continue
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		c.handlersMu.RLock()
		fn := c.handlers[env.Event]
		c.handlersMu.RUnlock()
		if fn != nil {
			fn(env.Data)
		}
	}
}

// reconnect tries to re-establish the connection, a bounded number of times
// with a fixed delay between attempts.
func (c *Client) reconnect() bool {
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		time.Sleep(c.cfg.RetryDelay)

		conn, err := c.dial()
		if err != nil {
			continue
		}
		c.writeMu.Lock()
		c.conn = conn
		c.writeMu.Unlock()
		return true
	}
	return false
}

// On registers a raw handler for an event name, replacing any previous one.
func (c *Client) On(event string, fn func(json.RawMessage)) {
	c.handlersMu.Lock()
	c.handlers[event] = fn
	c.handlersMu.Unlock()
}

func decodeInto[T any](fn func(T)) func(json.RawMessage) {
	return func(data json.RawMessage) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return
		}
		fn(v)
	}
}

// OnMessage registers a handler for broadcast chat messages.
func (c *Client) OnMessage(fn func(Message)) { c.On("receive_message", decodeInto(fn)) }

// OnPrivateMessage registers a handler for direct messages.
func (c *Client) OnPrivateMessage(fn func(Message)) { c.On("private_message", decodeInto(fn)) }

// OnUserList registers a handler for full user list updates.
func (c *Client) OnUserList(fn func([]User)) { c.On("user_list", decodeInto(fn)) }

// OnUserJoined registers a handler for join notices.
func (c *Client) OnUserJoined(fn func(User)) { c.On("user_joined", decodeInto(fn)) }

// OnUserLeft registers a handler for leave notices.
func (c *Client) OnUserLeft(fn func(User)) { c.On("user_left", decodeInto(fn)) }

// OnTypingUsers registers a handler for typing indicator updates.
func (c *Client) OnTypingUsers(fn func([]string)) { c.On("typing_users", decodeInto(fn)) }

func (c *Client) emit(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(envelope{Event: event, Data: raw})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return errors.New("parley: not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Join registers a display name for this connection.
func (c *Client) Join(username string) error {
	return c.emit("user_join", username)
}

// SendMessage broadcasts a chat message to everyone.
func (c *Client) SendMessage(text string) error {
	return c.emit("send_message", map[string]string{"message": text})
}

// SendPrivate sends a direct message to the given connection identifier.
func (c *Client) SendPrivate(to, text string) error {
	return c.emit("private_message", map[string]string{"to": to, "message": text})
}

// SetTyping signals whether this user is composing a message.
func (c *Client) SetTyping(isTyping bool) error {
	return c.emit("typing", isTyping)
}
