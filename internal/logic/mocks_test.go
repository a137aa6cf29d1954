package logic

import (
	"context"
	"errors"

	"github.com/ffpredict/predictor-api/internal/models"
)

// MockRecordSource serves a fixed slice of records for any player/season.
type MockRecordSource struct {
	Records []models.WeeklyRecord
	Err     error
	Calls   int
}

func (m *MockRecordSource) PlayerSeason(ctx context.Context, playerID int64, season int) ([]models.WeeklyRecord, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records, nil
}

// MockTrainingSource serves a fixed history window.
type MockTrainingSource struct {
	Records []models.WeeklyRecord
	Err     error
}

func (m *MockTrainingSource) Seasons(ctx context.Context, from, to int) ([]models.WeeklyRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records, nil
}

// MockCache is an in-memory Cache.
type MockCache struct {
	Data    map[string]string
	GetErr  error
	SetErr  error
	SetKeys []string
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string]string)}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	return m.Data[key], nil
}

func (m *MockCache) Set(ctx context.Context, key, val string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Data[key] = val
	m.SetKeys = append(m.SetKeys, key)
	return nil
}

var errSourceDown = errors.New("source down")
