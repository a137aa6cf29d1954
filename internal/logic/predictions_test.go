package logic

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/ffpredict/predictor-api/internal/bundle"
	"github.com/ffpredict/predictor-api/internal/features"
	"github.com/ffpredict/predictor-api/internal/models"
	"github.com/ffpredict/predictor-api/internal/regression"
)

// constModel returns a submodel whose prediction is always the intercept, so
// the blend arithmetic in tests stays checkable by hand.
func constModel(target string, intercept float64, nf int) *regression.Submodel {
	stds := make([]float64, nf)
	for i := range stds {
		stds[i] = 1
	}
	return &regression.Submodel{
		Target:    target,
		Alpha:     regression.DefaultAlpha,
		Means:     make([]float64, nf),
		Stds:      stds,
		Coefs:     make([]float64, nf),
		Intercept: intercept,
		Rows:      100,
	}
}

func testBundle() *bundle.Bundle {
	return &bundle.Bundle{
		SchemaVersion: bundle.SchemaVersion,
		ID:            "test-bundle",
		CutoffSeason:  2024,
		Opportunity:   constModel(models.FeatTouches, 10, len(features.OpportunityFeatures)),
		Efficiency:    constModel(models.FeatFPPerTouch, 0.6, len(features.EfficiencyFeatures)),
		TeamPriors: map[string]bundle.TeamPrior{
			"KC": {TouchMean: 8, FPPTMean: 0.5},
		},
		GlobalTouchMean:     7,
		GlobalFPPTMean:      0.45,
		OpportunityFeatures: append([]string(nil), features.OpportunityFeatures...),
		EfficiencyFeatures:  append([]string(nil), features.EfficiencyFeatures...),
		ShrinkageK:          ShrinkageK,
	}
}

// fiveWeekHistory gives player 1 five straight weeks with KC against DEN:
// enough history that every feature the bundle needs is present by week 5.
func fiveWeekHistory() []models.WeeklyRecord {
	var recs []models.WeeklyRecord
	for week := 1; week <= 5; week++ {
		recs = append(recs, models.WeeklyRecord{
			PlayerID:      1,
			Season:        2024,
			Week:          week,
			RecentTeam:    "KC",
			OpponentTeam:  "DEN",
			Carries:       10,
			FantasyPoints: 5,
		})
	}
	return recs
}

func TestShrinkWeight(t *testing.T) {
	tests := []struct {
		n, k, want float64
	}{
		{0, 5, 0},
		{-1, 5, 0},
		{5, 5, 0.5},
		{15, 5, 0.75},
	}
	for _, tt := range tests {
		if got := ShrinkWeight(tt.n, tt.k); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ShrinkWeight(%v, %v) = %v, want %v", tt.n, tt.k, got, tt.want)
		}
	}

	// Monotonic in evidence.
	prev := ShrinkWeight(0, 5)
	for n := 1.0; n <= 20; n++ {
		w := ShrinkWeight(n, 5)
		if w <= prev {
			t.Fatalf("ShrinkWeight not increasing at n=%v: %v <= %v", n, w, prev)
		}
		if w >= 1 {
			t.Fatalf("ShrinkWeight(%v, 5) = %v, want < 1", n, w)
		}
		prev = w
	}
}

func TestPredictBlendsModelWithPrior(t *testing.T) {
	source := &MockRecordSource{Records: fiveWeekHistory()}
	svc := NewPredictionService(testBundle(), source, nil, zap.NewNop())

	pred, err := svc.Predict(context.Background(), 1, 2024, 5)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	// Five games with KC, k=5: the model and the prior split evenly.
	if math.Abs(pred.Weight-0.5) > 1e-12 {
		t.Errorf("Weight = %v, want 0.5", pred.Weight)
	}
	if math.Abs(pred.TouchBlend-9.0) > 1e-12 {
		t.Errorf("TouchBlend = %v, want 9.0 (half of 10, half of 8)", pred.TouchBlend)
	}
	if math.Abs(pred.FPPTBlend-0.55) > 1e-12 {
		t.Errorf("FPPTBlend = %v, want 0.55", pred.FPPTBlend)
	}
	if math.Abs(pred.ExpectedPoints-9.0*0.55) > 1e-12 {
		t.Errorf("ExpectedPoints = %v, want %v", pred.ExpectedPoints, 9.0*0.55)
	}
	if pred.TouchHat != 10 || pred.FPPTHat != 0.6 {
		t.Errorf("raw model outputs = %v, %v, want 10, 0.6", pred.TouchHat, pred.FPPTHat)
	}
	if pred.PriorTouch != 8 || pred.PriorFPPT != 0.5 {
		t.Errorf("priors = %v, %v, want 8, 0.5", pred.PriorTouch, pred.PriorFPPT)
	}
}

func TestPredictUnknownTeamUsesGlobalPrior(t *testing.T) {
	recs := fiveWeekHistory()
	for i := range recs {
		recs[i].RecentTeam = "HOU" // not in the bundle's prior table
	}
	source := &MockRecordSource{Records: recs}
	b := testBundle()
	svc := NewPredictionService(b, source, nil, zap.NewNop())

	pred, err := svc.Predict(context.Background(), 1, 2024, 5)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.PriorTouch != b.GlobalTouchMean || pred.PriorFPPT != b.GlobalFPPTMean {
		t.Errorf("priors = %v, %v, want global fallbacks %v, %v",
			pred.PriorTouch, pred.PriorFPPT, b.GlobalTouchMean, b.GlobalFPPTMean)
	}
}

func TestPredictNoData(t *testing.T) {
	source := &MockRecordSource{Records: fiveWeekHistory()}
	svc := NewPredictionService(testBundle(), source, nil, zap.NewNop())

	_, err := svc.Predict(context.Background(), 1, 2024, 10)
	var noData *NoDataError
	if !errors.As(err, &noData) {
		t.Fatalf("error = %v, want *NoDataError", err)
	}
	if noData.PlayerID != 1 || noData.Season != 2024 || noData.Week != 10 {
		t.Errorf("NoDataError = %+v", noData)
	}
}

func TestPredictMissingFeatures(t *testing.T) {
	// Week 1 is the player's first appearance: every lagged feature is
	// missing, and the error names each one per submodel.
	source := &MockRecordSource{Records: fiveWeekHistory()}
	svc := NewPredictionService(testBundle(), source, nil, zap.NewNop())

	_, err := svc.Predict(context.Background(), 1, 2024, 1)
	var missing *MissingFeaturesError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want *MissingFeaturesError", err)
	}

	wantOp := []string{models.FeatRollTouch3, models.FeatTeamFP5, models.FeatOppFP5}
	wantEff := []string{models.FeatRollFPPT3, models.FeatOppFP5}
	if !reflect.DeepEqual(missing.Opportunity, wantOp) {
		t.Errorf("Opportunity = %v, want %v", missing.Opportunity, wantOp)
	}
	if !reflect.DeepEqual(missing.Efficiency, wantEff) {
		t.Errorf("Efficiency = %v, want %v", missing.Efficiency, wantEff)
	}
}

func TestPredictSourceError(t *testing.T) {
	source := &MockRecordSource{Err: errSourceDown}
	svc := NewPredictionService(testBundle(), source, nil, zap.NewNop())

	_, err := svc.Predict(context.Background(), 1, 2024, 5)
	if !errors.Is(err, errSourceDown) {
		t.Errorf("error = %v, want wrapped source failure", err)
	}
}

func TestPredictCaches(t *testing.T) {
	source := &MockRecordSource{Records: fiveWeekHistory()}
	cache := NewMockCache()
	svc := NewPredictionService(testBundle(), source, cache, zap.NewNop())

	first, err := svc.Predict(context.Background(), 1, 2024, 5)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(cache.SetKeys) != 1 || cache.SetKeys[0] != "pred:1:2024:5" {
		t.Fatalf("cache keys = %v, want [pred:1:2024:5]", cache.SetKeys)
	}

	// Second call is served from the cache: the source must not be hit again.
	source.Err = errSourceDown
	second, err := svc.Predict(context.Background(), 1, 2024, 5)
	if err != nil {
		t.Fatalf("cached Predict: %v", err)
	}
	if source.Calls != 1 {
		t.Errorf("source called %d times, want 1", source.Calls)
	}
	if second.ExpectedPoints != first.ExpectedPoints {
		t.Errorf("cached ExpectedPoints = %v, want %v", second.ExpectedPoints, first.ExpectedPoints)
	}
}

func TestPredictCacheFailureIsNotFatal(t *testing.T) {
	source := &MockRecordSource{Records: fiveWeekHistory()}
	cache := NewMockCache()
	cache.GetErr = errSourceDown
	cache.SetErr = errSourceDown
	svc := NewPredictionService(testBundle(), source, cache, zap.NewNop())

	if _, err := svc.Predict(context.Background(), 1, 2024, 5); err != nil {
		t.Fatalf("Predict with broken cache: %v", err)
	}
}
