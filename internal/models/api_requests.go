package models

type PredictRequest struct {
	PlayerID int64 `json:"player_id" validate:"required,gt=0"`
	Season   int   `json:"season" validate:"required,gte=1999"`
	Week     int   `json:"week" validate:"required,gte=1,lte=22"`
}

type PredictResponse struct {
	PlayerID       int64   `json:"player_id"`
	Season         int     `json:"season"`
	Week           int     `json:"week"`
	ExpectedPoints float64 `json:"expected_points"`
	PlayerName     string  `json:"player_name,omitempty"`
}

type IngestResponse struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// PlayerInfo is the players directory row kept in Postgres.
type PlayerInfo struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Team     string `json:"team,omitempty"`
}
