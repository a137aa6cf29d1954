package logic

import (
	"context"

	"github.com/ffpredict/predictor-api/internal/models"
)

// RecordSource supplies historical weekly records. Implemented by the
// ClickHouse record store; mocked in tests.
type RecordSource interface {
	PlayerSeason(ctx context.Context, playerID int64, season int) ([]models.WeeklyRecord, error)
}

// TrainingSource supplies the multi-season history window for training.
type TrainingSource interface {
	Seasons(ctx context.Context, from, to int) ([]models.WeeklyRecord, error)
}

// Cache is the small surface the prediction service needs from Redis.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, val string) error
}

// PlayerDirectory resolves player ids to directory info for response
// enrichment. A nil result means the player is simply not in the directory.
type PlayerDirectory interface {
	Lookup(ctx context.Context, playerID int64) (*models.PlayerInfo, error)
}

// PredictionService scores one player-week against the loaded bundle.
type PredictionService interface {
	Predict(ctx context.Context, playerID int64, season, week int) (*models.Prediction, error)
}
