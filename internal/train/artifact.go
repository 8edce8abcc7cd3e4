package train

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/Samer-Is/RPI/internal/features"
	"github.com/Samer-Is/RPI/internal/gbrt"
	rpiio "github.com/Samer-Is/RPI/internal/io"
)

// Stage identifies which model of the two-stage pipeline an artifact holds.
type Stage string

const (
	StageBaseline   Stage = "baseline"
	StageElasticity Stage = "elasticity"
)

// Artifact is one versioned, immutable trained-model blob: the fitted
// ensemble plus everything needed to encode inference rows exactly as
// training rows were encoded. A new training run supersedes it with a fresh
// version tag; artifacts are never mutated in place.
type Artifact struct {
	Version        string                   `json:"version"`
	Stage          Stage                    `json:"stage"`
	TrainedAt      time.Time                `json:"trained_at"`
	FeatureColumns []string                 `json:"feature_columns"`
	Model          *gbrt.Model              `json:"model"`
	Imputer        *features.Imputer        `json:"imputer"`
	Buckets        *features.Buckets        `json:"buckets"`
	Reference      features.ReferencePrices `json:"reference_prices"`
	Report         EvalReport               `json:"report"`
}

// EvalReport summarizes training quality: per-split metrics, the train/test
// R2 overfit gap, and feature importance rolled up by category.
type EvalReport struct {
	Train              Metrics            `json:"train"`
	Val                Metrics            `json:"val"`
	Test               Metrics            `json:"test"`
	OverfitGap         float64            `json:"overfit_gap"`
	CategoryImportance map[string]float64 `json:"category_importance"`
	TopFeatures        []FeatureWeight    `json:"top_features"`
}

// FeatureWeight pairs a feature column with its normalized importance.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Predict encodes a fully-materialized feature map and returns the demand
// estimate floored at zero. NaN inputs are filled with the frozen training
// medians; absent columns surface as data-quality errors.
func (a *Artifact) Predict(vals map[string]float64) (float64, error) {
	vec := features.NewVector(a.FeatureColumns)
	x, err := vec.Encode(vals, a.Imputer)
	if err != nil {
		return 0, fmt.Errorf("%s artifact: %w", a.Stage, err)
	}
	return math.Max(0, a.Model.Predict(x)), nil
}

// validate guards against feature-order corruption: positional vectors make a
// silent mismatch catastrophic, so loading re-checks the pairing.
func (a *Artifact) validate() error {
	if a.Model == nil {
		return fmt.Errorf("artifact %s: no model blob", a.Version)
	}
	if len(a.FeatureColumns) == 0 {
		return fmt.Errorf("artifact %s: empty feature column list", a.Version)
	}
	if a.Model.NumFeatures != len(a.FeatureColumns) {
		return fmt.Errorf("artifact %s: model expects %d features but column list has %d",
			a.Version, a.Model.NumFeatures, len(a.FeatureColumns))
	}
	if a.Imputer == nil || a.Buckets == nil {
		return fmt.Errorf("artifact %s: missing frozen imputer or buckets", a.Version)
	}
	return nil
}

// SaveArtifact writes the versioned blob and refreshes the stage's stable
// "latest" pointer, both atomically.
func SaveArtifact(dir string, a *Artifact) (string, error) {
	if err := a.validate(); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	versioned := filepath.Join(dir, fmt.Sprintf("%s_%s.json", a.Stage, a.Version))
	if err := rpiio.WriteJSONAtomic(versioned, a); err != nil {
		return "", fmt.Errorf("save %s artifact: %w", a.Stage, err)
	}
	latest := LatestPath(dir, a.Stage)
	if err := rpiio.WriteJSONAtomic(latest, a); err != nil {
		return "", fmt.Errorf("update %s latest pointer: %w", a.Stage, err)
	}
	return versioned, nil
}

// LoadArtifact reads and validates an artifact blob.
func LoadArtifact(path string) (*Artifact, error) {
	var a Artifact
	if err := rpiio.ReadJSON(path, &a); err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	return &a, nil
}

// LatestPath is the stable location of a stage's most recent artifact.
func LatestPath(dir string, stage Stage) string {
	return filepath.Join(dir, fmt.Sprintf("%s_latest.json", stage))
}

// ReferencePrice returns the historical mean price for a series, falling back
// to the supplied default when the series was never observed.
func (a *Artifact) ReferencePrice(branchID, categoryID int64, fallback float64) float64 {
	if v, ok := a.Reference.Lookup(branchID, categoryID); ok {
		return v
	}
	return fallback
}
