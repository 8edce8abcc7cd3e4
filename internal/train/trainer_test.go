package train

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samer-Is/RPI/internal/config"
	"github.com/Samer-Is/RPI/internal/domain"
	"github.com/Samer-Is/RPI/internal/features"
)

// syntheticHistory builds two series of price-sensitive demand: bookings
// fall as the weekly price cycle rises, plus a weekday effect.
func syntheticHistory(days int) []domain.Transaction {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	var txs []domain.Transaction
	for _, series := range []struct {
		branch, category int64
		basePrice        float64
	}{
		{1, 10, 200},
		{2, 20, 350},
	} {
		for d := 0; d < days; d++ {
			date := base.AddDate(0, 0, d)
			price := series.basePrice + float64(d%7)*15
			bookings := 8 - d%7/2 + int(date.Weekday())%3
			if bookings < 1 {
				bookings = 1
			}
			for b := 0; b < bookings; b++ {
				txs = append(txs, domain.Transaction{
					BranchID:     series.branch,
					CategoryID:   series.category,
					DailyRate:    price,
					Start:        date.Add(10 * time.Hour),
					DurationDays: 2,
				})
			}
		}
	}
	return txs
}

func smallStage() config.StageParams {
	return config.StageParams{
		NumTrees:            40,
		MaxDepth:            3,
		LearningRate:        0.2,
		MinChildWeight:      1,
		Subsample:           1.0,
		ColSampleByTree:     1.0,
		Alpha:               0,
		Lambda:              1,
		Seed:                42,
		EarlyStoppingRounds: 10,
	}
}

func builtTable(t *testing.T) *features.Result {
	t.Helper()
	builder := features.NewBuilder(features.BuilderConfig{MaxDailyRate: 10000, MinHistoryDays: 14}, nil)
	res, err := builder.Build(syntheticHistory(150))
	require.NoError(t, err)
	return res
}

func TestTrainAll_ProducesBothStages(t *testing.T) {
	res := builtTable(t)
	trainer := NewTrainer(config.TrainingConfig{
		TrainFraction: 0.7,
		ValFraction:   0.15,
		Baseline:      smallStage(),
		Elasticity:    smallStage(),
	})

	run, err := trainer.TrainAll(res)
	require.NoError(t, err)
	require.NotEmpty(t, run.RunID)

	assert.Equal(t, StageBaseline, run.Baseline.Stage)
	assert.Equal(t, StageElasticity, run.Elasticity.Stage)
	assert.NotEmpty(t, run.Baseline.Version)
	assert.NotEqual(t, run.Baseline.Version, run.Elasticity.Version)

	assert.Equal(t, features.BaselineColumns(), run.Baseline.FeatureColumns)
	assert.Equal(t, features.ElasticityColumns(), run.Elasticity.FeatureColumns)
	assert.NotContains(t, run.Baseline.FeatureColumns, features.ColAvgPrice,
		"the baseline stage never sees live price features")

	for _, a := range []*Artifact{run.Baseline, run.Elasticity} {
		assert.Greater(t, a.Report.Train.N, 0)
		assert.Greater(t, a.Report.Val.N, 0)
		assert.Greater(t, a.Report.Test.N, 0)
		assert.NotNil(t, a.Imputer)
		assert.NotNil(t, a.Buckets)
	}
}

func TestTrainAll_PredictionsAreNonNegative(t *testing.T) {
	res := builtTable(t)
	trainer := NewTrainer(config.TrainingConfig{
		TrainFraction: 0.7,
		ValFraction:   0.15,
		Baseline:      smallStage(),
		Elasticity:    smallStage(),
	})
	run, err := trainer.TrainAll(res)
	require.NoError(t, err)

	for _, row := range res.Rows[:50] {
		for _, a := range []*Artifact{run.Baseline, run.Elasticity} {
			pred, err := a.Predict(row.Values)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, pred, 0.0)
		}
	}
}

func TestTrainAll_BaselineLearnsDemandSignal(t *testing.T) {
	res := builtTable(t)
	trainer := NewTrainer(config.TrainingConfig{
		TrainFraction: 0.7,
		ValFraction:   0.15,
		Baseline:      smallStage(),
		Elasticity:    smallStage(),
	})
	run, err := trainer.TrainAll(res)
	require.NoError(t, err)

	assert.Greater(t, run.Baseline.Report.Train.R2, 0.3,
		"a cyclic synthetic signal should be learnable")
}
