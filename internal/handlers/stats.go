package handlers

import (
	"net/http"
	"time"
)

// StatsResponse represents the stats endpoint response.
type StatsResponse struct {
	Connections     int    `json:"connections"`
	RegisteredUsers int    `json:"registered_users"`
	TypingUsers     int    `json:"typing_users"`
	HistoryLength   int    `json:"history_length"`
	StartedAt       string `json:"started_at"`
	Uptime          string `json:"uptime"`
}

// Stats returns relay statistics: connection and presence counts plus the
// current history length.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, StatsResponse{
		Connections:     h.conns.ClientCount(),
		RegisteredUsers: h.registry.Count(),
		TypingUsers:     len(h.registry.TypingNames()),
		HistoryLength:   len(h.history.All()),
		StartedAt:       h.startedAt.Format(time.RFC3339),
		Uptime:          time.Since(h.startedAt).Round(time.Second).String(),
	})
}
