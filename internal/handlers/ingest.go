package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ffpredict/predictor-api/internal/models"
)

// IngestStats handles POST /api/v1/ingest/stats: newline-separated JSON
// weekly records. Rows that fail to parse or validate are counted and
// skipped; the rest are queued for batched ClickHouse insertion.
func (h *Handler) IngestStats(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	defer r.Body.Close()

	var accepted, rejected int
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var rec models.WeeklyRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			h.logger.Warnw("Failed to unmarshal weekly record", "error", err)
			rejected++
			continue
		}
		if err := h.validator.Struct(&rec); err != nil {
			h.logger.Warnw("Validation failed for weekly record",
				"error", err, "player", rec.PlayerID)
			rejected++
			continue
		}

		if h.pool.Enqueue(&rec) {
			accepted++
		} else {
			rejected++
		}
	}

	if accepted == 0 && rejected > 0 {
		h.jsonResponse(w, http.StatusBadRequest, models.IngestResponse{Accepted: accepted, Rejected: rejected})
		return
	}
	h.jsonResponse(w, http.StatusAccepted, models.IngestResponse{Accepted: accepted, Rejected: rejected})
}
