package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ffpredict/predictor-api/internal/logic"
	"github.com/ffpredict/predictor-api/internal/models"
)

// Predict handles POST /api/v1/predict: expected fantasy points for one
// player-week. NoDataError maps to 404, MissingFeaturesError to 400 with
// the missing names spelled out, anything else to 500.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	var req models.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	pred, err := h.prediction.Predict(r.Context(), req.PlayerID, req.Season, req.Week)
	if err != nil {
		var noData *logic.NoDataError
		var missing *logic.MissingFeaturesError
		switch {
		case errors.As(err, &noData):
			h.errorResponse(w, http.StatusNotFound, noData.Error())
		case errors.As(err, &missing):
			h.jsonResponse(w, http.StatusBadRequest, map[string]interface{}{
				"error":               "missing required features",
				"missing_opportunity": missing.Opportunity,
				"missing_efficiency":  missing.Efficiency,
			})
		default:
			h.logger.Errorw("Prediction failed",
				"error", err, "player", req.PlayerID, "season", req.Season, "week", req.Week)
			h.errorResponse(w, http.StatusInternalServerError, "Failed to compute prediction")
		}
		return
	}

	resp := models.PredictResponse{
		PlayerID:       pred.PlayerID,
		Season:         pred.Season,
		Week:           pred.Week,
		ExpectedPoints: pred.ExpectedPoints,
	}

	// Directory enrichment is best-effort; an unknown player still gets a
	// prediction.
	if h.directory != nil {
		if info, err := h.directory.Lookup(r.Context(), req.PlayerID); err == nil && info != nil {
			resp.PlayerName = info.Name
		}
	}

	h.jsonResponse(w, http.StatusOK, resp)
}
