package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samer-Is/RPI/internal/domain"
)

func TestImputer_MedianOfFiniteValuesOnly(t *testing.T) {
	rows := []domain.FeatureRow{
		{Values: map[string]float64{"a": 1, "b": math.NaN()}},
		{Values: map[string]float64{"a": 5, "b": 4}},
		{Values: map[string]float64{"a": 3, "b": 8}},
	}

	im := FitImputer(rows, []string{"a", "b"})
	assert.Equal(t, 3.0, im.Fill("a"))
	assert.Equal(t, 6.0, im.Fill("b"), "NaN excluded, median of {4, 8}")
	assert.Equal(t, 0.0, im.Fill("absent"), "unfitted column falls back to 0")
}

func TestImputer_ApplyFillsInPlaceAndFlagsMissingColumns(t *testing.T) {
	rows := []domain.FeatureRow{
		{Values: map[string]float64{"a": math.NaN()}},
	}
	im := &Imputer{Medians: map[string]float64{"a": 7}}

	require.NoError(t, im.Apply(rows, []string{"a"}))
	assert.Equal(t, 7.0, rows[0].Values["a"])

	err := im.Apply(rows, []string{"a", "ghost"})
	assert.Error(t, err)
}

func TestVector_EncodeHonorsColumnOrder(t *testing.T) {
	vec := NewVector([]string{"x", "y", "z"})
	out, err := vec.Encode(map[string]float64{"y": 2, "z": 3, "x": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, out)
}

func TestVector_EncodeRejectsNaNWithoutImputer(t *testing.T) {
	vec := NewVector([]string{"x"})

	_, err := vec.Encode(map[string]float64{"x": math.NaN()}, nil)
	assert.Error(t, err)

	out, err := vec.Encode(map[string]float64{"x": math.NaN()}, &Imputer{Medians: map[string]float64{"x": 9}})
	require.NoError(t, err)
	assert.Equal(t, []float64{9}, out)
}

func TestVector_EncodeRejectsAbsentColumn(t *testing.T) {
	vec := NewVector([]string{"x", "y"})
	_, err := vec.Encode(map[string]float64{"x": 1}, nil)
	assert.ErrorContains(t, err, "y")
}

func TestFitBuckets_TiersByMeanBookings(t *testing.T) {
	var aggs []domain.DailyAggregate
	add := func(branch, category int64, bookings float64) {
		aggs = append(aggs, domain.DailyAggregate{BranchID: branch, CategoryID: category, Bookings: bookings})
	}
	add(1, 10, 5)   // small branch, quiet category
	add(2, 20, 30)  // mid branch, mid category
	add(3, 30, 200) // large branch, busy category

	b := FitBuckets(aggs)
	assert.Equal(t, 0.0, b.BranchBucket(1))
	assert.Equal(t, 1.0, b.BranchBucket(2))
	assert.Equal(t, 3.0, b.BranchBucket(3))
	assert.Equal(t, 0.0, b.BranchBucket(99), "unseen branch defaults to tier 0")

	assert.Equal(t, 0.0, b.CategoryBucket(10))
	assert.Equal(t, 2.0, b.CategoryBucket(20))
	assert.Equal(t, 3.0, b.CategoryBucket(30))
}
