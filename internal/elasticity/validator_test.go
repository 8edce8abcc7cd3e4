package elasticity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samer-Is/RPI/internal/config"
	"github.com/Samer-Is/RPI/internal/domain"
)

func validatorConfig() config.ValidatorConfig {
	return config.ValidatorConfig{
		Alpha:          0.05,
		MinSampleRows:  50,
		SegmentMinDays: 30,
		TopBranches:    5,
	}
}

// elasticAggs synthesizes days of strongly price-elastic demand across two
// branches: log(demand) = 9 - 1.2*log(price), with the price cycling widely.
func elasticAggs(days int) []domain.DailyAggregate {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []domain.DailyAggregate
	for _, branch := range []int64{1, 2} {
		for d := 0; d < days; d++ {
			price := 150 + 40*float64(d%9) // CV well above 0.30
			demand := math.Exp(9 - 1.2*math.Log(price))
			out = append(out, domain.DailyAggregate{
				Date:       base.AddDate(0, 0, d),
				BranchID:   branch,
				CategoryID: 10,
				Bookings:   math.Max(1, math.Round(demand)),
				AvgPrice:   price,
			})
		}
	}
	return out
}

// flatAggs synthesizes a corpus with one constant price.
func flatAggs(days int) []domain.DailyAggregate {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []domain.DailyAggregate
	for d := 0; d < days; d++ {
		out = append(out, domain.DailyAggregate{
			Date:       base.AddDate(0, 0, d),
			BranchID:   1,
			CategoryID: 10,
			Bookings:   float64(3 + d%4),
			AvgPrice:   300,
		})
	}
	return out
}

func TestValidate_RichVariationAndSignalIsApproved(t *testing.T) {
	report, err := NewValidator(validatorConfig()).Validate(elasticAggs(120))
	require.NoError(t, err)

	assert.Equal(t, VariationExcellent, report.VariationStatus)
	assert.Equal(t, 4, report.VariationScore)
	assert.Equal(t, Significant, report.Significance)
	assert.Equal(t, 4, report.ElasticityScore)
	assert.Equal(t, 8, report.TotalScore)
	assert.Equal(t, domain.RecommendationApproved, report.Recommendation)

	assert.InDelta(t, -1.2, report.Elasticity, 0.15)
	assert.Contains(t, []string{CategoryHighlyElastic, CategoryModeratelyElastic}, report.ElasticityCategory)
	assert.NotEmpty(t, report.Summary)
}

func TestValidate_FlatPricingIsNotReady(t *testing.T) {
	report, err := NewValidator(validatorConfig()).Validate(flatAggs(120))
	require.NoError(t, err)

	assert.Equal(t, VariationInsufficient, report.VariationStatus)
	assert.Equal(t, 1, report.VariationScore)
	assert.Equal(t, 0.0, report.PriceCV)
	assert.Equal(t, 0.0, report.ChangeRate)
	assert.Equal(t, CategoryUnknown, report.ElasticityCategory,
		"zero price variance yields no measurable elasticity")
	assert.Equal(t, 1, report.ElasticityScore)
	assert.Equal(t, domain.RecommendationNotReady, report.Recommendation)
}

func TestValidate_TooFewRowsDowngradesElasticitySignal(t *testing.T) {
	report, err := NewValidator(validatorConfig()).Validate(elasticAggs(10))
	require.NoError(t, err)

	assert.Equal(t, CategoryUnknown, report.ElasticityCategory)
	assert.Equal(t, UnknownSignal, report.Significance)
	assert.Equal(t, 1, report.ElasticityScore)
}

// sparseAggs synthesizes a series with one observed booking day in five, the
// price alternating between two levels, and the gap days densified to zero
// bookings with the last observed price carried forward.
func sparseAggs(observedDays int) []domain.DailyAggregate {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []domain.DailyAggregate
	for i := 0; i < observedDays; i++ {
		price := 150.0
		if i%2 == 1 {
			price = 450
		}
		bookings := 10.0 - 7*float64(i%2)
		out = append(out, domain.DailyAggregate{
			Date:       base.AddDate(0, 0, i*5),
			BranchID:   1,
			CategoryID: 10,
			Bookings:   bookings,
			AvgPrice:   price,
		})
		for gap := 1; gap <= 4; gap++ {
			out = append(out, domain.DailyAggregate{
				Date:       base.AddDate(0, 0, i*5+gap),
				BranchID:   1,
				CategoryID: 10,
				Bookings:   0,
				AvgPrice:   price,
				Densified:  true,
			})
		}
	}
	return out
}

func TestValidate_DensifiedRowsDoNotDiluteVariation(t *testing.T) {
	report, err := NewValidator(validatorConfig()).Validate(sparseAggs(60))
	require.NoError(t, err)

	// Only the 60 observed days count: the price moves on every observed
	// transition and alternates 150/450, so both variation inputs are high
	// despite four synthetic no-change rows per booking day.
	assert.InDelta(t, 1.0, report.ChangeRate, 1e-9)
	assert.InDelta(t, 0.504, report.PriceCV, 0.01)
	assert.Equal(t, VariationExcellent, report.VariationStatus)
	assert.Equal(t, 4, report.VariationScore)
}

func TestValidate_EmptyInputIsAnError(t *testing.T) {
	_, err := NewValidator(validatorConfig()).Validate(nil)
	assert.Error(t, err)
}

func TestValidate_SegmentsCoverTopBranches(t *testing.T) {
	report, err := NewValidator(validatorConfig()).Validate(elasticAggs(120))
	require.NoError(t, err)

	require.Len(t, report.Segments, 2)
	for _, seg := range report.Segments {
		assert.Contains(t, []int64{1, 2}, seg.BranchID)
		assert.InDelta(t, -1.2, seg.Elasticity, 0.2)
		assert.Greater(t, seg.Days, 30)
	}
}

func TestVariationTiers(t *testing.T) {
	cases := []struct {
		cv, rate float64
		status   string
		score    int
	}{
		{0.35, 0.40, VariationExcellent, 4},
		{0.25, 0.25, VariationGood, 3},
		{0.12, 0.15, VariationWeak, 2},
		{0.35, 0.05, VariationInsufficient, 1}, // both thresholds must pass
		{0.05, 0.50, VariationInsufficient, 1},
	}
	for _, c := range cases {
		status := variationStatus(c.cv, c.rate)
		assert.Equal(t, c.status, status, "cv=%.2f rate=%.2f", c.cv, c.rate)
		assert.Equal(t, c.score, variationScore(status))
	}
}
