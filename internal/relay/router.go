// Package relay routes inbound client events: each event mutates the
// presence registry or message history and re-broadcasts the resulting state
// to all or targeted connections.
package relay

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/metrics"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/presence"
	"github.com/parley-chat/parley/internal/store"
)

// Sender is the slice of the connection hub the router needs for emitting
// outbound events.
type Sender interface {
	Broadcast(event string, data any)
	SendTo(connID, event string, data any)
}

type handlerFunc func(connID string, data json.RawMessage)

// Router dispatches inbound events through an explicit table, so the handled
// event set is statically enumerable. The hub invokes it on a single
// goroutine; handlers never interleave.
type Router struct {
	registry *presence.Registry
	history  store.HistoryStore
	sender   Sender
	logger   zerolog.Logger
	ids      *idSource
	table    map[string]handlerFunc
}

func NewRouter(registry *presence.Registry, history store.HistoryStore, sender Sender, logger zerolog.Logger) *Router {
	rt := &Router{
		registry: registry,
		history:  history,
		sender:   sender,
		logger:   logger,
		ids:      newIDSource(),
	}
	rt.table = map[string]handlerFunc{
		models.EventUserJoin:       rt.handleJoin,
		models.EventSendMessage:    rt.handleSendMessage,
		models.EventTyping:         rt.handleTyping,
		models.EventPrivateMessage: rt.handlePrivateMessage,
	}
	return rt
}

// HandleEvent dispatches one inbound event. Unknown event names are dropped;
// no error is ever surfaced back to the client.
func (rt *Router) HandleEvent(connID string, env models.Envelope) {
	fn, ok := rt.table[env.Event]
	if !ok {
		rt.logger.Debug().Str("event", env.Event).Str("conn_id", connID).Msg("unknown event")
		return
	}
	metrics.EventsReceived.WithLabelValues(env.Event).Inc()
	fn(connID, env.Data)
}

// HandleDisconnect removes the connection's registration and typing entry,
// then re-broadcasts presence state. The left notice fires only if the user
// was still registered, so repeated disconnects emit it at most once.
func (rt *Router) HandleDisconnect(connID string) {
	user, wasRegistered := rt.registry.Leave(connID)
	if wasRegistered {
		rt.logger.Info().Str("conn_id", connID).Str("username", user.Username).Msg("user left")
		rt.sender.Broadcast(models.EventUserLeft, user)
	}
	rt.sender.Broadcast(models.EventUserList, rt.registry.List())
	rt.sender.Broadcast(models.EventTypingUsers, rt.registry.TypingNames())
}

func (rt *Router) handleJoin(connID string, data json.RawMessage) {
	var username string
	if err := json.Unmarshal(data, &username); err != nil {
		rt.logger.Warn().Err(err).Str("conn_id", connID).Msg("bad user_join payload")
		return
	}

	user := rt.registry.Join(connID, username)
	rt.logger.Info().Str("conn_id", connID).Str("username", username).Msg("user joined")

	rt.sender.Broadcast(models.EventUserList, rt.registry.List())
	rt.sender.Broadcast(models.EventUserJoined, user)
}

type sendMessagePayload struct {
	Body string `json:"message"`
}

func (rt *Router) handleSendMessage(connID string, data json.RawMessage) {
	var payload sendMessagePayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			rt.logger.Warn().Err(err).Str("conn_id", connID).Msg("bad send_message payload")
			return
		}
	}

	msg := rt.newMessage(connID, payload.Body, false)
	rt.history.Append(msg)
	metrics.MessagesRelayed.WithLabelValues("broadcast").Inc()

	rt.sender.Broadcast(models.EventReceiveMessage, msg)
}

func (rt *Router) handleTyping(connID string, data json.RawMessage) {
	var isTyping bool
	if err := json.Unmarshal(data, &isTyping); err != nil {
		rt.logger.Warn().Err(err).Str("conn_id", connID).Msg("bad typing payload")
		return
	}

	// Unregistered connections have no username to show; ignore them.
	if _, ok := rt.registry.Get(connID); !ok {
		return
	}
	rt.registry.SetTyping(connID, isTyping)

	rt.sender.Broadcast(models.EventTypingUsers, rt.registry.TypingNames())
}

type privateMessagePayload struct {
	To   string `json:"to"`
	Body string `json:"message"`
}

func (rt *Router) handlePrivateMessage(connID string, data json.RawMessage) {
	var payload privateMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		rt.logger.Warn().Err(err).Str("conn_id", connID).Msg("bad private_message payload")
		return
	}
	if payload.To == "" {
		rt.logger.Warn().Str("conn_id", connID).Msg("private_message without target")
		return
	}

	// Private messages are delivered to recipient and sender only and are
	// never appended to the shared history.
	msg := rt.newMessage(connID, payload.Body, true)
	metrics.MessagesRelayed.WithLabelValues("private").Inc()

	rt.sender.SendTo(payload.To, models.EventPrivateMessage, msg)
	if payload.To != connID {
		rt.sender.SendTo(connID, models.EventPrivateMessage, msg)
	}
}

// newMessage stamps a record with the sender's registered username, falling
// back to "Anonymous" for unregistered connections.
func (rt *Router) newMessage(connID, body string, private bool) models.Message {
	sender := "Anonymous"
	if u, ok := rt.registry.Get(connID); ok {
		sender = u.Username
	}
	return models.Message{
		ID:        rt.ids.next(),
		Sender:    sender,
		SenderID:  connID,
		Body:      body,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		IsPrivate: private,
	}
}
