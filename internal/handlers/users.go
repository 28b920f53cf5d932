package handlers

import "net/http"

// GetUsers returns a snapshot of all currently registered users.
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, h.registry.List())
}
