package handlers

import "net/http"

// GetMessages returns the persisted broadcast message history, oldest first.
// Private messages never appear here.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, h.history.All())
}
