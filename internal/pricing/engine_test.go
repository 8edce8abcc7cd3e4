package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samer-Is/RPI/internal/calendar"
	"github.com/Samer-Is/RPI/internal/config"
	"github.com/Samer-Is/RPI/internal/domain"
	"github.com/Samer-Is/RPI/internal/features"
	"github.com/Samer-Is/RPI/internal/gbrt"
	"github.com/Samer-Is/RPI/internal/train"
)

func pricingConfig() config.PricingConfig {
	return config.PricingConfig{
		ClampLow:              0.5,
		ClampHigh:             2.0,
		ConditionalClampLow:   0.7,
		ConditionalClampHigh:  1.3,
		DefaultReferencePrice: 300,
		OptimizerSamples:      10,
	}
}

// stubModel wraps a hand-built tree into a single-feature ensemble so the
// combiner's behavior is exactly predictable.
func stubModel(base float64, trees ...gbrt.Tree) *gbrt.Model {
	return &gbrt.Model{
		BaseScore:    base,
		LearningRate: 1,
		NumFeatures:  1,
		Trees:        trees,
	}
}

func stubArtifact(stage train.Stage, model *gbrt.Model) *train.Artifact {
	return &train.Artifact{
		Version:        "stub-" + string(stage),
		Stage:          stage,
		FeatureColumns: []string{features.ColAvgPrice},
		Model:          model,
		Imputer:        &features.Imputer{Medians: map[string]float64{features.ColAvgPrice: 300}},
		Buckets:        &features.Buckets{Branch: map[int64]float64{}, Category: map[int64]float64{}},
		Reference:      features.ReferencePrices{features.RefKey(1, 10): 300},
	}
}

// flatBaseline predicts a constant 8 bookings regardless of price.
func flatBaseline() *train.Artifact {
	return stubArtifact(train.StageBaseline, stubModel(8))
}

// steppedElastic predicts 2 bookings below 250 SAR, 10 in [250, 350), and 25
// at 350 or above. The reference price of 300 lands on the middle leaf, so
// the raw factors are 0.2, 1.0 and 2.5.
func steppedElastic() *train.Artifact {
	tree := gbrt.Tree{Nodes: []gbrt.Node{
		{Feature: 0, Threshold: 250, Left: 1, Right: 2},
		{Leaf: true, Value: 2},
		{Feature: 0, Threshold: 350, Left: 3, Right: 4},
		{Leaf: true, Value: 10},
		{Leaf: true, Value: 25},
	}}
	return stubArtifact(train.StageElasticity, stubModel(0, tree))
}

func testEngine(t *testing.T, elastic *train.Artifact) *Engine {
	t.Helper()
	eng, err := NewEngine(flatBaseline(), elastic, calendar.Empty(), pricingConfig())
	require.NoError(t, err)
	return eng
}

func testRequest(price float64) Request {
	return Request{
		Price:      price,
		BranchID:   1,
		CategoryID: 10,
		Date:       time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewEngine_RequiresBaseline(t *testing.T) {
	_, err := NewEngine(nil, steppedElastic(), calendar.Empty(), pricingConfig())
	assert.Error(t, err)
}

func TestPredict_BaselineOnlyWhenElasticityMissing(t *testing.T) {
	eng := testEngine(t, nil)
	assert.False(t, eng.ElasticityActive())

	pred, err := eng.Predict(testRequest(200))
	require.NoError(t, err)

	assert.Equal(t, 8.0, pred.BaselineDemand)
	assert.Equal(t, 1.0, pred.ElasticityFactor)
	assert.Equal(t, 8.0, pred.FinalDemand)
	assert.True(t, pred.BaselineUsed)
	assert.False(t, pred.ElasticityUsed)
	assert.Equal(t, domain.ConfidenceMedium, pred.Confidence)
	assert.Contains(t, pred.Explanation, "Baseline demand only")
}

func TestPredict_FactorClampedToConfiguredBand(t *testing.T) {
	eng := testEngine(t, steppedElastic())
	require.True(t, eng.ElasticityActive())

	low, err := eng.Predict(testRequest(200)) // raw ratio 0.2
	require.NoError(t, err)
	assert.Equal(t, 0.5, low.ElasticityFactor)
	assert.InDelta(t, 4.0, low.FinalDemand, 1e-12)
	assert.Contains(t, low.Explanation, "suppresses")

	high, err := eng.Predict(testRequest(400)) // raw ratio 2.5
	require.NoError(t, err)
	assert.Equal(t, 2.0, high.ElasticityFactor)
	assert.InDelta(t, 16.0, high.FinalDemand, 1e-12)
	assert.Contains(t, high.Explanation, "favors")
	assert.Equal(t, domain.ConfidenceHigh, high.Confidence)
}

func TestPredict_ReferencePriceYieldsNeutralFactor(t *testing.T) {
	eng := testEngine(t, steppedElastic())

	pred, err := eng.Predict(testRequest(300))
	require.NoError(t, err)

	assert.Equal(t, 1.0, pred.ElasticityFactor)
	assert.Equal(t, 8.0, pred.FinalDemand)
	assert.Contains(t, pred.Explanation, "near the reference")
}

func TestPredict_NonPositiveReferencePredictionIsNeutral(t *testing.T) {
	// Every leaf is negative, so the floored reference prediction is zero.
	sunk := stubArtifact(train.StageElasticity, stubModel(-5))
	eng := testEngine(t, sunk)

	pred, err := eng.Predict(testRequest(200))
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred.ElasticityFactor)
}

func TestApplyValidation_NotReadyDisablesElasticity(t *testing.T) {
	eng := testEngine(t, steppedElastic())
	eng.ApplyValidation(&domain.ValidationReport{Recommendation: domain.RecommendationNotReady})

	assert.False(t, eng.ElasticityActive())

	pred, err := eng.Predict(testRequest(200))
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred.ElasticityFactor)
	assert.False(t, pred.ElasticityUsed)
	assert.Equal(t, domain.ConfidenceMedium, pred.Confidence)
}

func TestApplyValidation_ConditionalNarrowsClampAndConfidence(t *testing.T) {
	eng := testEngine(t, steppedElastic())
	eng.ApplyValidation(&domain.ValidationReport{Recommendation: domain.RecommendationConditional})
	require.True(t, eng.ElasticityActive())

	low, err := eng.Predict(testRequest(200))
	require.NoError(t, err)
	assert.Equal(t, 0.7, low.ElasticityFactor)
	assert.Equal(t, domain.ConfidenceMedium, low.Confidence)

	high, err := eng.Predict(testRequest(400))
	require.NoError(t, err)
	assert.Equal(t, 1.3, high.ElasticityFactor)
}

func TestApplyValidation_ApprovedAndNilLeaveEngineUntouched(t *testing.T) {
	eng := testEngine(t, steppedElastic())
	eng.ApplyValidation(nil)
	eng.ApplyValidation(&domain.ValidationReport{Recommendation: domain.RecommendationApproved})

	pred, err := eng.Predict(testRequest(400))
	require.NoError(t, err)
	assert.Equal(t, 2.0, pred.ElasticityFactor)
	assert.Equal(t, domain.ConfidenceHigh, pred.Confidence)
}

func TestRequestValidate(t *testing.T) {
	valid := testRequest(250)
	assert.NoError(t, valid.Validate())

	negative := valid
	negative.Price = -10
	assert.Error(t, negative.Validate())

	undated := valid
	undated.Date = time.Time{}
	assert.Error(t, undated.Validate())
}

func TestDefaultSamples(t *testing.T) {
	eng := testEngine(t, nil)
	assert.Equal(t, 10, eng.DefaultSamples())

	cfg := pricingConfig()
	cfg.OptimizerSamples = 0
	unset, err := NewEngine(flatBaseline(), nil, calendar.Empty(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 10, unset.DefaultSamples())

	cfg.OptimizerSamples = 25
	wide, err := NewEngine(flatBaseline(), nil, calendar.Empty(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 25, wide.DefaultSamples())
}
