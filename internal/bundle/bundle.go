// Package bundle defines the versioned model artifact produced by a training
// run and consumed read-only by every serving process. A bundle is written
// once and replaced atomically on retrain; it is never mutated in place.
package bundle

import (
	"fmt"
	"time"

	"github.com/ffpredict/predictor-api/internal/regression"
)

// SchemaVersion guards against loading artifacts written by an incompatible
// build. Bump it whenever the serialized shape changes.
const SchemaVersion = 1

// TeamPrior is the empirical baseline for one team, computed over the
// training slice only.
type TeamPrior struct {
	TouchMean float64 `json:"touch_mean"`
	FPPTMean  float64 `json:"fppt_mean"`
}

// Bundle is the immutable training artifact: both fitted submodels, the
// team priors with global fallbacks, the authoritative feature-name lists,
// and the shrinkage constant.
type Bundle struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	CutoffSeason  int       `json:"cutoff_season"`

	Opportunity *regression.Submodel `json:"opportunity_model"`
	Efficiency  *regression.Submodel `json:"efficiency_model"`

	TeamPriors      map[string]TeamPrior `json:"team_priors"`
	GlobalTouchMean float64              `json:"global_touch_mean"`
	GlobalFPPTMean  float64              `json:"global_fppt_mean"`

	OpportunityFeatures []string `json:"opportunity_features"`
	EfficiencyFeatures  []string `json:"efficiency_features"`

	ShrinkageK float64 `json:"shrinkage_k"`
}

// Validate checks structural integrity: everything Predict will touch must
// be present and shaped consistently with the recorded feature lists.
func (b *Bundle) Validate() error {
	if b.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema_version %d, want %d", b.SchemaVersion, SchemaVersion)
	}
	if b.ID == "" {
		return fmt.Errorf("missing bundle id")
	}
	if len(b.OpportunityFeatures) == 0 {
		return fmt.Errorf("empty opportunity_features")
	}
	if len(b.EfficiencyFeatures) == 0 {
		return fmt.Errorf("empty efficiency_features")
	}
	if b.Opportunity == nil {
		return fmt.Errorf("missing opportunity_model")
	}
	if b.Efficiency == nil {
		return fmt.Errorf("missing efficiency_model")
	}
	if err := b.Opportunity.Check(len(b.OpportunityFeatures)); err != nil {
		return fmt.Errorf("opportunity_model: %w", err)
	}
	if err := b.Efficiency.Check(len(b.EfficiencyFeatures)); err != nil {
		return fmt.Errorf("efficiency_model: %w", err)
	}
	if b.TeamPriors == nil {
		return fmt.Errorf("missing team_priors")
	}
	if b.ShrinkageK <= 0 {
		return fmt.Errorf("shrinkage_k %v, want > 0", b.ShrinkageK)
	}
	return nil
}

// Prior looks up the team baseline, falling back to the global means when
// the team never appeared in the training slice.
func (b *Bundle) Prior(team string) TeamPrior {
	if p, ok := b.TeamPriors[team]; ok {
		return p
	}
	return TeamPrior{TouchMean: b.GlobalTouchMean, FPPTMean: b.GlobalFPPTMean}
}
