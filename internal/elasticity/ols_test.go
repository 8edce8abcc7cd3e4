package elasticity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegress_RecoversKnownLine(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 3 + 2*v
	}

	fit, err := Regress(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fit.Slope, 1e-12)
	assert.InDelta(t, 3.0, fit.Intercept, 1e-12)
	assert.InDelta(t, 1.0, fit.R, 1e-12)
	assert.Equal(t, 0.0, fit.PValue, "a perfect fit is maximally significant")
	assert.Equal(t, 6, fit.N)
}

func TestRegress_NoisyNegativeSlope(t *testing.T) {
	// Demand falls with price plus deterministic wiggle.
	x := make([]float64, 40)
	y := make([]float64, 40)
	for i := range x {
		x[i] = 5 + 0.05*float64(i)
		y[i] = 10 - 1.5*x[i] + 0.3*math.Sin(float64(i))
	}

	fit, err := Regress(x, y)
	require.NoError(t, err)
	assert.InDelta(t, -1.5, fit.Slope, 0.2)
	assert.Less(t, fit.PValue, 0.001, "a strong slope over 40 points is significant")
	assert.Less(t, fit.R, 0.0)
}

func TestRegress_FlatRelationshipIsNotSignificant(t *testing.T) {
	// y is independent of x; alternate residuals keep variance positive.
	x := make([]float64, 30)
	y := make([]float64, 30)
	for i := range x {
		x[i] = float64(i)
		y[i] = 5 + float64(i%2)
	}

	fit, err := Regress(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, fit.Slope, 0.05)
	assert.Greater(t, fit.PValue, 0.3)
}

func TestRegress_DegenerateInputs(t *testing.T) {
	_, err := Regress([]float64{1, 2}, []float64{1, 2})
	assert.Error(t, err, "fewer than 3 points")

	_, err = Regress([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.Error(t, err, "x has zero variance")

	_, err = Regress([]float64{1, 2, 3}, []float64{1, 2})
	assert.Error(t, err, "length mismatch")
}

func TestRegress_ConstantTargetHasZeroCorrelation(t *testing.T) {
	fit, err := Regress([]float64{1, 2, 3, 4}, []float64{7, 7, 7, 7})
	require.NoError(t, err)
	assert.Equal(t, 0.0, fit.Slope)
	assert.Equal(t, 0.0, fit.R)
}

func TestTTestTwoSided_MatchesReferenceValues(t *testing.T) {
	// Student t with 10 degrees of freedom: P(|T| >= 2.228) = 0.05.
	assert.InDelta(t, 0.05, tTestTwoSided(2.228, 10), 0.001)
	// P(|T| >= 0) = 1.
	assert.InDelta(t, 1.0, tTestTwoSided(0, 10), 1e-9)
}
