package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ffpredict/predictor-api/internal/bundle"
	"github.com/ffpredict/predictor-api/internal/features"
	"github.com/ffpredict/predictor-api/internal/models"
	"github.com/ffpredict/predictor-api/internal/regression"
)

// ShrinkageK is the fixed shrinkage constant recorded into every bundle.
// Serving reads it from the bundle, never from this constant, so old
// artifacts keep the value they were trained with.
const ShrinkageK = 5.0

// Trainer runs the one-shot offline training job: features over the full
// history window, priors and submodels over the pre-cutoff slice only.
type Trainer struct {
	source TrainingSource
	logger *zap.SugaredLogger
}

func NewTrainer(source TrainingSource, logger *zap.Logger) *Trainer {
	return &Trainer{source: source, logger: logger.Sugar()}
}

// TrainResult carries the bundle plus bookkeeping for the registry.
type TrainResult struct {
	Bundle    *bundle.Bundle
	TrainRows int
	TotalRows int
}

// Train pulls seasons [from, cutoff] from the record store, computes the
// feature table, and fits everything on rows with season < cutoff. Records
// from the cutoff season itself inform nothing: using them would leak
// serving-time data into the priors and coefficients.
func (t *Trainer) Train(ctx context.Context, fromSeason, cutoffSeason int) (*TrainResult, error) {
	records, err := t.source.Seasons(ctx, fromSeason, cutoffSeason)
	if err != nil {
		return nil, fmt.Errorf("fetching training history: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records in seasons %d-%d", fromSeason, cutoffSeason)
	}

	rows := features.Compute(records)

	train := make([]models.FeatureRow, 0, len(rows))
	for i := range rows {
		if rows[i].Season < cutoffSeason {
			train = append(train, rows[i])
		}
	}
	if len(train) == 0 {
		return nil, fmt.Errorf("no training rows before cutoff season %d", cutoffSeason)
	}

	t.logger.Infow("Computed training features",
		"total_rows", len(rows), "train_rows", len(train), "cutoff_season", cutoffSeason)

	priors, globalTouch, globalFPPT := BuildPriors(train)

	var opModel, effModel *regression.Submodel
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		opModel, err = regression.Fit(train, features.OpportunityFeatures, models.FeatTouches, regression.DefaultAlpha)
		if err != nil {
			return fmt.Errorf("opportunity model: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		effModel, err = regression.Fit(train, features.EfficiencyFeatures, models.FeatFPPerTouch, regression.DefaultAlpha)
		if err != nil {
			return fmt.Errorf("efficiency model: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.logger.Infow("Fitted submodels",
		"opportunity_rows", opModel.Rows, "efficiency_rows", effModel.Rows,
		"teams_with_priors", len(priors),
	)

	b := &bundle.Bundle{
		SchemaVersion:       bundle.SchemaVersion,
		ID:                  uuid.NewString(),
		CreatedAt:           time.Now().UTC(),
		CutoffSeason:        cutoffSeason,
		Opportunity:         opModel,
		Efficiency:          effModel,
		TeamPriors:          priors,
		GlobalTouchMean:     globalTouch,
		GlobalFPPTMean:      globalFPPT,
		OpportunityFeatures: append([]string(nil), features.OpportunityFeatures...),
		EfficiencyFeatures:  append([]string(nil), features.EfficiencyFeatures...),
		ShrinkageK:          ShrinkageK,
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("assembled bundle failed validation: %w", err)
	}

	return &TrainResult{Bundle: b, TrainRows: len(train), TotalRows: len(rows)}, nil
}
