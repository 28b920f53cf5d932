package store

import (
	"context"
	"sync"

	"github.com/parley-chat/parley/internal/models"
)

// MaxHistory is the maximum number of broadcast messages retained. Once the
// bound is exceeded the oldest entry is evicted.
const MaxHistory = 100

// HistoryStore is the bounded, ordered message history. The in-memory list
// is authoritative; implementations mirror it to a backing medium on every
// append. Mirror failures are logged and never propagated, so in-memory
// state can diverge from the medium until the next successful write.
type HistoryStore interface {
	Append(msg models.Message)
	All() []models.Message
	Ping(ctx context.Context) error
	Close() error
}

// memoryLog holds the authoritative in-memory history shared by every
// HistoryStore implementation.
type memoryLog struct {
	mu       sync.RWMutex
	messages []models.Message
}

// append adds a message, evicts the oldest entry past MaxHistory, and
// returns a snapshot of the resulting history for mirroring.
func (l *memoryLog) append(msg models.Message) []models.Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
	if len(l.messages) > MaxHistory {
		l.messages = l.messages[1:]
	}

	snapshot := make([]models.Message, len(l.messages))
	copy(snapshot, l.messages)
	return snapshot
}

func (l *memoryLog) all() []models.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make([]models.Message, len(l.messages))
	copy(snapshot, l.messages)
	return snapshot
}

// replace installs history loaded from a backing medium, keeping only the
// newest MaxHistory entries.
func (l *memoryLog) replace(msgs []models.Message) {
	if len(msgs) > MaxHistory {
		msgs = msgs[len(msgs)-MaxHistory:]
	}

	l.mu.Lock()
	l.messages = msgs
	l.mu.Unlock()
}
