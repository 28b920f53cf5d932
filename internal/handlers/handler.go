package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/parley-chat/parley/internal/presence"
	"github.com/parley-chat/parley/internal/store"
)

// ConnectionCounter reports how many client connections are open. Satisfied
// by the hub; tests substitute a stub.
type ConnectionCounter interface {
	ClientCount() int
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	history   store.HistoryStore
	registry  *presence.Registry
	conns     ConnectionCounter
	instance  string
	startedAt time.Time
}

// NewHandler creates a Handler over the given stores. instance is the
// per-process identifier reported by the health endpoint.
func NewHandler(history store.HistoryStore, registry *presence.Registry, conns ConnectionCounter, instance string) *Handler {
	return &Handler{
		history:   history,
		registry:  registry,
		conns:     conns,
		instance:  instance,
		startedAt: time.Now().UTC(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// Root handles the liveness endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Parley chat relay is running"))
}
