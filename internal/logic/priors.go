package logic

import (
	"github.com/ffpredict/predictor-api/internal/bundle"
	"github.com/ffpredict/predictor-api/internal/models"
)

// BuildPriors computes the team-level empirical baselines over the training
// slice: per-team mean touches and mean fp-per-touch (missing values
// ignored), plus the same two means over the whole slice as global
// fallbacks. A team with no row carrying a valid efficiency value is left
// out of the table; lookups for it fall back to the global means.
func BuildPriors(rows []models.FeatureRow) (map[string]bundle.TeamPrior, float64, float64) {
	type agg struct {
		touchSum float64
		touchN   int
		fpptSum  float64
		fpptN    int
	}

	byTeam := make(map[string]*agg)
	var global agg

	for i := range rows {
		r := &rows[i]
		a := byTeam[r.RecentTeam]
		if a == nil {
			a = &agg{}
			byTeam[r.RecentTeam] = a
		}
		a.touchSum += r.Touches
		a.touchN++
		global.touchSum += r.Touches
		global.touchN++
		if r.FPPerTouch.Valid {
			a.fpptSum += r.FPPerTouch.Val
			a.fpptN++
			global.fpptSum += r.FPPerTouch.Val
			global.fpptN++
		}
	}

	priors := make(map[string]bundle.TeamPrior, len(byTeam))
	for team, a := range byTeam {
		if a.fpptN == 0 {
			continue
		}
		priors[team] = bundle.TeamPrior{
			TouchMean: a.touchSum / float64(a.touchN),
			FPPTMean:  a.fpptSum / float64(a.fpptN),
		}
	}

	var globalTouch, globalFPPT float64
	if global.touchN > 0 {
		globalTouch = global.touchSum / float64(global.touchN)
	}
	if global.fpptN > 0 {
		globalFPPT = global.fpptSum / float64(global.fpptN)
	}
	return priors, globalTouch, globalFPPT
}
