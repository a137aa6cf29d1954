package logic

import (
	"fmt"
	"strings"
)

// NoDataError means no historical record exists for the requested
// player/season/week. The engine never substitutes a default; the caller
// decides whether to retry with different parameters.
type NoDataError struct {
	PlayerID int64
	Season   int
	Week     int
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data for player %d season %d week %d", e.PlayerID, e.Season, e.Week)
}

// MissingFeaturesError means the computed feature row lacks values the
// loaded bundle requires: either the player has too little history, or the
// bundle and pipeline disagree on feature sets. It names exactly which
// features are missing from which submodel's list.
type MissingFeaturesError struct {
	Opportunity []string
	Efficiency  []string
}

func (e *MissingFeaturesError) Error() string {
	return fmt.Sprintf("missing required features: opportunity=[%s] efficiency=[%s]",
		strings.Join(e.Opportunity, ","), strings.Join(e.Efficiency, ","))
}
