package train

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Samer-Is/RPI/internal/config"
	"github.com/Samer-Is/RPI/internal/features"
	"github.com/Samer-Is/RPI/internal/gbrt"
)

// Trainer runs the two-stage training harness over one built feature table.
type Trainer struct {
	cfg config.TrainingConfig
}

// NewTrainer wires a trainer with its configuration.
func NewTrainer(cfg config.TrainingConfig) *Trainer {
	return &Trainer{cfg: cfg}
}

// Run is the output of one full training run.
type Run struct {
	RunID      string
	Baseline   *Artifact
	Elasticity *Artifact
}

// TrainAll fits Stage 1 (baseline, no live price features) and Stage 2
// (elasticity, price features included) on chronological splits of the
// feature table and returns the two fresh artifacts. Failures abort the run;
// a half-trained pipeline is never persisted.
func (t *Trainer) TrainAll(res *features.Result) (*Run, error) {
	split, err := SplitChronological(res.Rows, t.cfg.TrainFraction, t.cfg.ValFraction)
	if err != nil {
		return nil, fmt.Errorf("training: %w", err)
	}
	log.Info().
		Int("train", len(split.Train)).
		Int("val", len(split.Val)).
		Int("test", len(split.Test)).
		Time("train_from", split.Train[0].Date).
		Time("test_to", split.Test[len(split.Test)-1].Date).
		Msg("chronological split prepared")

	// Medians are fitted on the train split only and frozen into both
	// artifacts, so later splits and inference never leak information back.
	imputer := features.FitImputer(split.Train, res.Columns)

	runID := uuid.NewString()
	baseline, err := t.trainStage(StageBaseline, features.BaselineColumns(), t.cfg.Baseline, split, imputer, res)
	if err != nil {
		return nil, err
	}
	elasticity, err := t.trainStage(StageElasticity, features.ElasticityColumns(), t.cfg.Elasticity, split, imputer, res)
	if err != nil {
		return nil, err
	}

	return &Run{RunID: runID, Baseline: baseline, Elasticity: elasticity}, nil
}

func (t *Trainer) trainStage(stage Stage, columns []string, params config.StageParams,
	split *Split, imputer *features.Imputer, res *features.Result) (*Artifact, error) {

	started := time.Now()
	vec := features.NewVector(columns)

	trainX, trainY, err := vec.Matrix(split.Train, imputer)
	if err != nil {
		return nil, fmt.Errorf("%s training: encode train split: %w", stage, err)
	}
	valX, valY, err := vec.Matrix(split.Val, imputer)
	if err != nil {
		return nil, fmt.Errorf("%s training: encode validation split: %w", stage, err)
	}
	testX, testY, err := vec.Matrix(split.Test, imputer)
	if err != nil {
		return nil, fmt.Errorf("%s training: encode test split: %w", stage, err)
	}

	model, err := gbrt.Train(trainX, trainY, valX, valY, toGBRTParams(params))
	if err != nil {
		return nil, fmt.Errorf("%s training: %w", stage, err)
	}

	report := buildReport(model, columns, trainX, trainY, valX, valY, testX, testY)
	artifact := &Artifact{
		Version:        uuid.NewString(),
		Stage:          stage,
		TrainedAt:      time.Now().UTC(),
		FeatureColumns: columns,
		Model:          model,
		Imputer:        imputer,
		Buckets:        res.Buckets,
		Reference:      res.Reference,
		Report:         report,
	}

	log.Info().
		Str("stage", string(stage)).
		Str("version", artifact.Version).
		Int("trees", model.BestIteration).
		Float64("test_r2", report.Test.R2).
		Float64("test_mae", report.Test.MAE).
		Float64("overfit_gap", report.OverfitGap).
		Dur("elapsed", time.Since(started)).
		Msg("stage trained")
	return artifact, nil
}

func buildReport(model *gbrt.Model, columns []string,
	trainX [][]float64, trainY []float64,
	valX [][]float64, valY []float64,
	testX [][]float64, testY []float64) EvalReport {

	report := EvalReport{
		Train: Evaluate(trainY, predictAll(model, trainX)),
		Val:   Evaluate(valY, predictAll(model, valX)),
		Test:  Evaluate(testY, predictAll(model, testX)),
	}
	report.OverfitGap = report.Train.R2 - report.Test.R2

	importance := model.Importance()
	weights := make([]FeatureWeight, len(columns))
	byCategory := map[string]float64{}
	for i, col := range columns {
		weights[i] = FeatureWeight{Feature: col, Importance: importance[i]}
		byCategory[featureCategory(col)] += importance[i]
	}
	sort.Slice(weights, func(i, j int) bool { return weights[i].Importance > weights[j].Importance })
	if len(weights) > 20 {
		weights = weights[:20]
	}
	report.TopFeatures = weights
	report.CategoryImportance = byCategory
	return report
}

// featureCategory rolls individual columns up into the importance groups the
// training report tracks.
func featureCategory(col string) string {
	lower := strings.ToLower(col)
	switch {
	case strings.Contains(lower, "price"):
		return "price"
	case strings.Contains(lower, "lag"), strings.Contains(lower, "roll"),
		strings.Contains(lower, "trend"), strings.Contains(lower, "sameday"):
		return "demand_history"
	case strings.Contains(lower, "holiday"), strings.Contains(lower, "ramadan"),
		strings.Contains(lower, "hajj"), strings.Contains(lower, "umrah"),
		strings.Contains(lower, "event"), strings.Contains(lower, "festival"),
		strings.Contains(lower, "vacation"), strings.Contains(lower, "sports"):
		return "events"
	case strings.HasPrefix(lower, "sin_"), strings.HasPrefix(lower, "cos_"):
		return "fourier"
	case strings.Contains(lower, "bucket"):
		return "context"
	default:
		return "temporal"
	}
}

func predictAll(model *gbrt.Model, x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = model.Predict(x[i])
	}
	return out
}

func toGBRTParams(p config.StageParams) gbrt.Params {
	return gbrt.Params{
		NumTrees:            p.NumTrees,
		MaxDepth:            p.MaxDepth,
		LearningRate:        p.LearningRate,
		MinChildWeight:      p.MinChildWeight,
		Subsample:           p.Subsample,
		ColSampleByTree:     p.ColSampleByTree,
		Alpha:               p.Alpha,
		Lambda:              p.Lambda,
		Seed:                p.Seed,
		EarlyStoppingRounds: p.EarlyStoppingRounds,
	}
}
