package handlers

import (
	"context"
	"errors"

	"github.com/ffpredict/predictor-api/internal/models"
)

// MockPredictionService returns a canned prediction or error.
type MockPredictionService struct {
	Prediction *models.Prediction
	Err        error
}

func (m *MockPredictionService) Predict(ctx context.Context, playerID int64, season, week int) (*models.Prediction, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Prediction, nil
}

// MockDirectory returns a canned player or error.
type MockDirectory struct {
	Info *models.PlayerInfo
	Err  error
}

func (m *MockDirectory) Lookup(ctx context.Context, playerID int64) (*models.PlayerInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Info, nil
}

// MockQueue records enqueued records; Full makes every Enqueue fail.
type MockQueue struct {
	Enqueued []*models.WeeklyRecord
	Full     bool
}

func (m *MockQueue) Enqueue(rec *models.WeeklyRecord) bool {
	if m.Full {
		return false
	}
	m.Enqueued = append(m.Enqueued, rec)
	return true
}

func (m *MockQueue) QueueDepth() int { return len(m.Enqueued) }

var errBoom = errors.New("boom")
