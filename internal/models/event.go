package models

import "encoding/json"

// Envelope is the JSON frame exchanged over the WebSocket transport in both
// directions: {"event": <name>, "data": <payload>}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names (client to server).
const (
	EventUserJoin       = "user_join"
	EventSendMessage    = "send_message"
	EventTyping         = "typing"
	EventPrivateMessage = "private_message"
)

// Outbound event names (server to client). EventPrivateMessage is reused in
// the outbound direction.
const (
	EventUserList       = "user_list"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventReceiveMessage = "receive_message"
	EventTypingUsers    = "typing_users"
)
