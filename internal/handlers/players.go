package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// GetPlayer handles GET /api/v1/players/{id}: directory lookup.
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.errorResponse(w, http.StatusBadRequest, "Invalid player id")
		return
	}

	info, err := h.directory.Lookup(r.Context(), id)
	if err != nil {
		h.logger.Errorw("Failed to look up player", "error", err, "player", id)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to look up player")
		return
	}
	if info == nil {
		h.errorResponse(w, http.StatusNotFound, "Player not found")
		return
	}

	h.jsonResponse(w, http.StatusOK, info)
}
