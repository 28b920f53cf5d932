// Package presence tracks which connections are registered with a username
// and which of them are currently typing.
package presence

import (
	"sync"

	"github.com/parley-chat/parley/internal/models"
)

// Registry owns the presence and typing state for all connected clients. It
// is handed to the event router explicitly rather than living as package
// state, so tests can build isolated instances.
//
// Both maps are keyed by connection identifier: the same username may be
// registered under any number of connections. State is entirely volatile.
type Registry struct {
	mu     sync.RWMutex
	users  map[string]models.User
	typing map[string]string // connection id -> username
}

func NewRegistry() *Registry {
	return &Registry{
		users:  make(map[string]models.User),
		typing: make(map[string]string),
	}
}

// Join inserts or overwrites the user record for the connection and returns
// the resulting record.
func (r *Registry) Join(connID, username string) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := models.User{ID: connID, Username: username}
	r.users[connID] = u
	return u
}

// Leave removes the user record and any typing entry for the connection. It
// is idempotent; ok reports whether a record was actually removed, which the
// router uses to fire the left notice at most once.
func (r *Registry) Leave(connID string) (models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[connID]
	delete(r.users, connID)
	delete(r.typing, connID)
	return u, ok
}

// Get returns the user record for the connection, if registered.
func (r *Registry) Get(connID string) (models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[connID]
	return u, ok
}

// List returns a snapshot of all current user records. Order is unspecified.
func (r *Registry) List() []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users
}

// SetTyping adds or removes the connection's username from the typing set.
// Unregistered connections are ignored, so the typing set can never hold an
// entry absent from the registry.
func (r *Registry) SetTyping(connID string, isTyping bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[connID]
	if !ok {
		return
	}
	if isTyping {
		r.typing[connID] = u.Username
	} else {
		delete(r.typing, connID)
	}
}

// TypingNames returns a snapshot of the usernames currently typing.
func (r *Registry) TypingNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.typing))
	for _, name := range r.typing {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
