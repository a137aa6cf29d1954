// Package features turns raw weekly records into the derived feature table
// used by both training and serving. Compute is a pure function: same input,
// same output, no shared state. Training and the prediction service call the
// exact same code path, which is what keeps the two feature sets identical.
package features

import (
	"sort"

	"github.com/ffpredict/predictor-api/internal/models"
)

// Window sizes are fixed engine parameters. The fitted models and the saved
// priors assume these values, so changing them invalidates every bundle.
const (
	UsageWindow  = 3
	OutputWindow = 5
)

// OpportunityFeatures and EfficiencyFeatures are the declared inputs of the
// two submodels. They are copied verbatim into the bundle at train time and
// validated against at serving time, never re-derived.
var (
	OpportunityFeatures = []string{
		models.FeatRollTouch3,
		models.FeatTeamFP5,
		models.FeatOppFP5,
		models.FeatGamesWithTeam,
		models.FeatTeamChange,
	}
	EfficiencyFeatures = []string{
		models.FeatRollFPPT3,
		models.FeatOppFP5,
		models.FeatGamesWithTeam,
		models.FeatTeamChange,
	}
)

// Compute derives the feature columns for every input record. Input does not
// need to be pre-sorted; rows are ordered by (player, season, week) before
// any lag is taken, and all rolling windows are strict lags: the current
// row's own outcome never feeds its own features. Output has exactly one row
// per input record, in (player, season, week) order.
func Compute(records []models.WeeklyRecord) []models.FeatureRow {
	sorted := make([]models.WeeklyRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.PlayerID != b.PlayerID {
			return a.PlayerID < b.PlayerID
		}
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		return a.Week < b.Week
	})

	teamSeries := buildGroupSeries(sorted, func(r models.WeeklyRecord) string { return r.RecentTeam })
	oppSeries := buildGroupSeries(sorted, func(r models.WeeklyRecord) string { return r.OpponentTeam })

	rows := make([]models.FeatureRow, 0, len(sorted))

	type playerState struct {
		touches   []float64
		fppt      []models.Float
		prevTeam  string
		prevWeek  int
		teamGames map[string]int
		started   bool
	}
	states := make(map[int64]*playerState)

	for _, rec := range sorted {
		st := states[rec.PlayerID]
		if st == nil {
			st = &playerState{teamGames: make(map[string]int)}
			states[rec.PlayerID] = st
		}

		row := models.FeatureRow{WeeklyRecord: rec}
		row.Touches = rec.Carries + rec.Targets
		row.FPPerTouch = models.Div(rec.FantasyPoints, row.Touches)

		row.RollTouch3 = trailingMeanFloat64(st.touches, UsageWindow)
		row.RollFPPT3 = trailingMean(st.fppt, UsageWindow)

		row.TeamFP5 = teamSeries.trailing(rec.RecentTeam, rec.Season, rec.Week, OutputWindow)
		row.OppFP5 = oppSeries.trailing(rec.OpponentTeam, rec.Season, rec.Week, OutputWindow)

		if st.started && rec.RecentTeam != st.prevTeam {
			row.TeamChange = 1
		}
		st.teamGames[rec.RecentTeam]++
		row.GamesWithTeam = st.teamGames[rec.RecentTeam]

		if st.started {
			row.GamesSince = float64(rec.Week - st.prevWeek)
		} else {
			row.GamesSince = 1
		}

		st.touches = append(st.touches, row.Touches)
		st.fppt = append(st.fppt, row.FPPerTouch)
		st.prevTeam = rec.RecentTeam
		st.prevWeek = rec.Week
		st.started = true

		rows = append(rows, row)
	}

	return rows
}

// trailingMean averages the valid entries of the last k values of history.
// The window counts rows, not valid values; missing when the window holds no
// valid value or the history is empty.
func trailingMean(history []models.Float, k int) models.Float {
	if len(history) == 0 {
		return models.NoFloat
	}
	start := len(history) - k
	if start < 0 {
		start = 0
	}
	return models.MeanValid(history[start:])
}

func trailingMeanFloat64(history []float64, k int) models.Float {
	if len(history) == 0 {
		return models.NoFloat
	}
	start := len(history) - k
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, v := range history[start:] {
		sum += v
	}
	return models.F(sum / float64(len(history)-start))
}

// groupSeries holds, per group key, the mean fantasy-point output of each
// period the group appeared in, with periods in ascending order. Team and
// opponent rollups read from it with a strict period lag, so a row never
// sees output from its own week.
type groupSeries struct {
	periods map[string][]int
	means   map[string]map[int]float64
}

func periodKey(season, week int) int {
	return season*100 + week
}

func buildGroupSeries(records []models.WeeklyRecord, key func(models.WeeklyRecord) string) *groupSeries {
	type agg struct {
		sum float64
		n   int
	}
	sums := make(map[string]map[int]*agg)
	for _, rec := range records {
		k := key(rec)
		if k == "" {
			continue
		}
		if sums[k] == nil {
			sums[k] = make(map[int]*agg)
		}
		p := periodKey(rec.Season, rec.Week)
		a := sums[k][p]
		if a == nil {
			a = &agg{}
			sums[k][p] = a
		}
		a.sum += rec.FantasyPoints
		a.n++
	}

	gs := &groupSeries{
		periods: make(map[string][]int, len(sums)),
		means:   make(map[string]map[int]float64, len(sums)),
	}
	for k, byPeriod := range sums {
		means := make(map[int]float64, len(byPeriod))
		periods := make([]int, 0, len(byPeriod))
		for p, a := range byPeriod {
			means[p] = a.sum / float64(a.n)
			periods = append(periods, p)
		}
		sort.Ints(periods)
		gs.periods[k] = periods
		gs.means[k] = means
	}
	return gs
}

// trailing returns the mean of the group's per-period output over the k most
// recent periods strictly before (season, week). Missing for unknown groups
// and for the group's earliest period.
func (g *groupSeries) trailing(key string, season, week, k int) models.Float {
	periods, ok := g.periods[key]
	if !ok {
		return models.NoFloat
	}
	p := periodKey(season, week)
	idx := sort.SearchInts(periods, p)
	start := idx - k
	if start < 0 {
		start = 0
	}
	if idx == start {
		return models.NoFloat
	}
	means := g.means[key]
	var sum float64
	for _, q := range periods[start:idx] {
		sum += means[q]
	}
	return models.F(sum / float64(idx-start))
}
