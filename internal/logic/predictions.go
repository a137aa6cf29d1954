package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/ffpredict/predictor-api/internal/bundle"
	"github.com/ffpredict/predictor-api/internal/features"
	"github.com/ffpredict/predictor-api/internal/models"
)

var (
	predictionsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ffpredict_predictions_served_total",
		Help: "Total number of predictions served",
	})

	predictionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ffpredict_prediction_errors_total",
		Help: "Total number of prediction failures by kind",
	}, []string{"kind"})

	predictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ffpredict_prediction_duration_seconds",
		Help:    "Duration of prediction computation including history fetch",
		Buckets: prometheus.DefBuckets,
	})
)

type predictionService struct {
	bundle *bundle.Bundle
	source RecordSource
	cache  Cache
	logger *zap.SugaredLogger
}

// NewPredictionService builds the serving engine around an already-loaded,
// read-only bundle. cache may be nil; predictions are then always computed.
func NewPredictionService(b *bundle.Bundle, source RecordSource, cache Cache, logger *zap.Logger) PredictionService {
	return &predictionService{
		bundle: b,
		source: source,
		cache:  cache,
		logger: logger.Sugar(),
	}
}

// Predict recomputes the feature row for the requested player-week through
// the same pipeline training used, scores both submodels, and blends each
// with the team prior under the shrinkage weight. All failure modes are
// deterministic for a given history and bundle, so nothing here retries.
func (s *predictionService) Predict(ctx context.Context, playerID int64, season, week int) (*models.Prediction, error) {
	start := time.Now()
	defer func() { predictionDuration.Observe(time.Since(start).Seconds()) }()

	cacheKey := fmt.Sprintf("pred:%d:%d:%d", playerID, season, week)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var pred models.Prediction
			if json.Unmarshal([]byte(cached), &pred) == nil {
				predictionsServed.Inc()
				return &pred, nil
			}
		}
	}

	records, err := s.source.PlayerSeason(ctx, playerID, season)
	if err != nil {
		predictionErrors.WithLabelValues("source").Inc()
		return nil, fmt.Errorf("fetching history for player %d: %w", playerID, err)
	}

	rows := features.Compute(records)
	row := findRow(rows, playerID, season, week)
	if row == nil {
		predictionErrors.WithLabelValues("no_data").Inc()
		return nil, &NoDataError{PlayerID: playerID, Season: season, Week: week}
	}

	xOp, missingOp := featureVector(row, s.bundle.OpportunityFeatures)
	xEff, missingEff := featureVector(row, s.bundle.EfficiencyFeatures)
	if len(missingOp) > 0 || len(missingEff) > 0 {
		predictionErrors.WithLabelValues("missing_features").Inc()
		return nil, &MissingFeaturesError{Opportunity: missingOp, Efficiency: missingEff}
	}

	touchHat := s.bundle.Opportunity.Predict(xOp)
	fpptHat := s.bundle.Efficiency.Predict(xEff)

	n := float64(row.GamesWithTeam)
	w := ShrinkWeight(n, s.bundle.ShrinkageK)
	prior := s.bundle.Prior(row.RecentTeam)

	touchBlend := w*touchHat + (1-w)*prior.TouchMean
	fpptBlend := w*fpptHat + (1-w)*prior.FPPTMean

	pred := &models.Prediction{
		PlayerID:       playerID,
		Season:         season,
		Week:           week,
		TouchHat:       touchHat,
		FPPTHat:        fpptHat,
		PriorTouch:     prior.TouchMean,
		PriorFPPT:      prior.FPPTMean,
		Weight:         w,
		TouchBlend:     touchBlend,
		FPPTBlend:      fpptBlend,
		ExpectedPoints: touchBlend * fpptBlend,
		GeneratedAt:    time.Now().UTC(),
	}

	if s.cache != nil {
		if data, err := json.Marshal(pred); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(data)); err != nil {
				s.logger.Warnw("Failed to cache prediction", "key", cacheKey, "error", err)
			}
		}
	}

	predictionsServed.Inc()
	s.logger.Infow("Prediction served",
		"player", playerID, "season", season, "week", week,
		"expected_points", pred.ExpectedPoints, "weight", w,
	)
	return pred, nil
}

// ShrinkWeight is the empirical-Bayes blend weight n/(n+k): zero evidence
// means all prior, and the learned model takes over as games with the
// current team accumulate.
func ShrinkWeight(n, k float64) float64 {
	if n <= 0 {
		return 0
	}
	return n / (n + k)
}

func findRow(rows []models.FeatureRow, playerID int64, season, week int) *models.FeatureRow {
	for i := range rows {
		if rows[i].PlayerID == playerID && rows[i].Season == season && rows[i].Week == week {
			return &rows[i]
		}
	}
	return nil
}

// featureVector pulls the named columns out of the row in list order,
// reporting every missing name rather than stopping at the first.
func featureVector(row *models.FeatureRow, names []string) ([]float64, []string) {
	vec := make([]float64, 0, len(names))
	var missing []string
	for _, name := range names {
		v, ok := row.Feature(name)
		if !ok || !v.Valid {
			missing = append(missing, name)
			continue
		}
		vec = append(vec, v.Val)
	}
	if len(missing) > 0 {
		return nil, missing
	}
	return vec, nil
}
