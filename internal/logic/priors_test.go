package logic

import (
	"math"
	"testing"

	"github.com/ffpredict/predictor-api/internal/bundle"
	"github.com/ffpredict/predictor-api/internal/models"
)

func featRow(team string, touches float64, fppt models.Float) models.FeatureRow {
	return models.FeatureRow{
		WeeklyRecord: models.WeeklyRecord{RecentTeam: team},
		Touches:      touches,
		FPPerTouch:   fppt,
	}
}

func TestBuildPriorsPerTeamMeans(t *testing.T) {
	rows := []models.FeatureRow{
		featRow("KC", 10, models.F(0.5)),
		featRow("KC", 12, models.F(0.6)),
		featRow("KC", 11, models.F(0.55)),
	}

	priors, globalTouch, globalFPPT := BuildPriors(rows)

	p, ok := priors["KC"]
	if !ok {
		t.Fatal("no prior for KC")
	}
	if math.Abs(p.TouchMean-11.0) > 1e-12 {
		t.Errorf("TouchMean = %v, want 11.0", p.TouchMean)
	}
	if math.Abs(p.FPPTMean-0.55) > 1e-12 {
		t.Errorf("FPPTMean = %v, want 0.55", p.FPPTMean)
	}
	if math.Abs(globalTouch-11.0) > 1e-12 {
		t.Errorf("globalTouch = %v, want 11.0", globalTouch)
	}
	if math.Abs(globalFPPT-0.55) > 1e-12 {
		t.Errorf("globalFPPT = %v, want 0.55", globalFPPT)
	}
}

func TestBuildPriorsSkipsInvalidEfficiency(t *testing.T) {
	rows := []models.FeatureRow{
		featRow("KC", 10, models.F(0.5)),
		featRow("KC", 0, models.NoFloat), // zero-touch week: no efficiency
		featRow("KC", 14, models.F(0.7)),
	}

	priors, _, _ := BuildPriors(rows)

	p := priors["KC"]
	// Touch mean over all three rows, efficiency mean over the two valid ones.
	if math.Abs(p.TouchMean-8.0) > 1e-12 {
		t.Errorf("TouchMean = %v, want 8.0", p.TouchMean)
	}
	if math.Abs(p.FPPTMean-0.6) > 1e-12 {
		t.Errorf("FPPTMean = %v, want 0.6", p.FPPTMean)
	}
}

func TestBuildPriorsOmitsTeamWithoutEfficiency(t *testing.T) {
	rows := []models.FeatureRow{
		featRow("KC", 10, models.F(0.5)),
		featRow("NYJ", 0, models.NoFloat),
	}

	priors, globalTouch, _ := BuildPriors(rows)

	if _, ok := priors["NYJ"]; ok {
		t.Error("NYJ got a prior despite no valid efficiency rows")
	}
	if _, ok := priors["KC"]; !ok {
		t.Error("KC missing from priors")
	}
	// Global touch mean still counts the NYJ row.
	if math.Abs(globalTouch-5.0) > 1e-12 {
		t.Errorf("globalTouch = %v, want 5.0", globalTouch)
	}

	// The omitted team resolves through the global fallback.
	b := &bundle.Bundle{
		TeamPriors:      priors,
		GlobalTouchMean: globalTouch,
		GlobalFPPTMean:  0.5,
	}
	if got := b.Prior("NYJ"); got.TouchMean != globalTouch {
		t.Errorf("Prior(NYJ).TouchMean = %v, want global %v", got.TouchMean, globalTouch)
	}
}

func TestBuildPriorsEmptyInput(t *testing.T) {
	priors, globalTouch, globalFPPT := BuildPriors(nil)
	if len(priors) != 0 {
		t.Errorf("priors = %v, want empty", priors)
	}
	if globalTouch != 0 || globalFPPT != 0 {
		t.Errorf("globals = %v, %v, want zeros", globalTouch, globalFPPT)
	}
}
