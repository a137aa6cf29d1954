package models

// WeeklyRecord is one observation of one player for one week of a season,
// as stored in ClickHouse (ff_stats.weekly_stats) and accepted by the
// ingest endpoint.
type WeeklyRecord struct {
	PlayerID      int64   `json:"player_id" validate:"required,gt=0"`
	Season        int     `json:"season" validate:"required,gte=1999"`
	Week          int     `json:"week" validate:"required,gte=1,lte=22"`
	RecentTeam    string  `json:"recent_team" validate:"required"`
	OpponentTeam  string  `json:"opponent_team"`
	Carries       float64 `json:"carries"`
	Targets       float64 `json:"targets"`
	FantasyPoints float64 `json:"fantasy_points"`
}

// Canonical feature column names. These exact strings are recorded in the
// model bundle and validated at serving time, so they must never drift.
const (
	FeatTouches       = "touches"
	FeatFPPerTouch    = "fp_per_touch"
	FeatRollTouch3    = "roll_touch3"
	FeatRollFPPT3     = "roll_fppt3"
	FeatTeamFP5       = "team_fp5"
	FeatOppFP5        = "opp_fp5"
	FeatTeamChange    = "team_change"
	FeatGamesWithTeam = "games_with_team"
	FeatGamesSince    = "games_since"
)

// FeatureRow is a WeeklyRecord augmented with derived temporal columns.
// The feature pipeline produces one FeatureRow per input record.
type FeatureRow struct {
	WeeklyRecord

	Touches    float64 `json:"touches"`
	FPPerTouch Float   `json:"fp_per_touch"`

	RollTouch3 Float `json:"roll_touch3"`
	RollFPPT3  Float `json:"roll_fppt3"`
	TeamFP5    Float `json:"team_fp5"`
	OppFP5     Float `json:"opp_fp5"`

	TeamChange    int     `json:"team_change"`
	GamesWithTeam int     `json:"games_with_team"`
	GamesSince    float64 `json:"games_since"`
}

// Feature returns the named feature column. The second return is false for
// unknown names; known-but-missing features return a Float with Valid=false.
func (r *FeatureRow) Feature(name string) (Float, bool) {
	switch name {
	case FeatTouches:
		return F(r.Touches), true
	case FeatFPPerTouch:
		return r.FPPerTouch, true
	case FeatRollTouch3:
		return r.RollTouch3, true
	case FeatRollFPPT3:
		return r.RollFPPT3, true
	case FeatTeamFP5:
		return r.TeamFP5, true
	case FeatOppFP5:
		return r.OppFP5, true
	case FeatTeamChange:
		return F(float64(r.TeamChange)), true
	case FeatGamesWithTeam:
		return F(float64(r.GamesWithTeam)), true
	case FeatGamesSince:
		return F(r.GamesSince), true
	}
	return NoFloat, false
}
