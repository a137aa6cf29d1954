package models

import "time"

// Prediction is the full result of scoring one player-week, including the
// intermediate quantities. Handlers expose only the headline number; the
// rest is kept for logging and inspection.
type Prediction struct {
	PlayerID int64 `json:"player_id"`
	Season   int   `json:"season"`
	Week     int   `json:"week"`

	TouchHat   float64 `json:"touch_hat"`
	FPPTHat    float64 `json:"fppt_hat"`
	PriorTouch float64 `json:"prior_touch"`
	PriorFPPT  float64 `json:"prior_fppt"`
	Weight     float64 `json:"weight"`
	TouchBlend float64 `json:"touch_blend"`
	FPPTBlend  float64 `json:"fppt_blend"`

	ExpectedPoints float64   `json:"expected_points"`
	GeneratedAt    time.Time `json:"generated_at"`
}
