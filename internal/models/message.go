package models

// Message is the wire and persistence form of a chat message. Broadcast
// messages enter the durable history; private messages are delivered to
// sender and recipient only and are never persisted.
type Message struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	SenderID  string `json:"senderId"`
	Body      string `json:"message"`
	Timestamp string `json:"timestamp"` // RFC3339
	IsPrivate bool   `json:"isPrivate,omitempty"`
}
