package train

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samer-Is/RPI/internal/domain"
)

func rowsOnDates(counts map[int]int) []domain.FeatureRow {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var rows []domain.FeatureRow
	for offset := 0; offset < 400; offset++ {
		n, ok := counts[offset]
		if !ok {
			continue
		}
		for i := 0; i < n; i++ {
			rows = append(rows, domain.FeatureRow{
				Date:     base.AddDate(0, 0, offset),
				BranchID: int64(i),
			})
		}
	}
	return rows
}

func TestSplitChronological_OrderingInvariant(t *testing.T) {
	counts := map[int]int{}
	for d := 0; d < 100; d++ {
		counts[d] = 3
	}
	split, err := SplitChronological(rowsOnDates(counts), 0.7, 0.15)
	require.NoError(t, err)

	require.NotEmpty(t, split.Train)
	require.NotEmpty(t, split.Val)
	require.NotEmpty(t, split.Test)
	assert.Equal(t, 300, len(split.Train)+len(split.Val)+len(split.Test))

	maxTrain := split.Train[len(split.Train)-1].Date
	minVal := split.Val[0].Date
	maxVal := split.Val[len(split.Val)-1].Date
	minTest := split.Test[0].Date

	assert.True(t, maxTrain.Before(minVal), "train must end strictly before val starts")
	assert.True(t, maxVal.Before(minTest), "val must end strictly before test starts")
}

func TestSplitChronological_TiedDatesNeverStraddle(t *testing.T) {
	// One date holds a big block right at the 70% boundary.
	counts := map[int]int{}
	for d := 0; d < 20; d++ {
		counts[d] = 1
	}
	counts[13] = 40

	split, err := SplitChronological(rowsOnDates(counts), 0.7, 0.15)
	require.NoError(t, err)

	seen := map[string]string{}
	record := func(part string, rows []domain.FeatureRow) {
		for _, r := range rows {
			key := r.Date.Format("2006-01-02")
			if prev, ok := seen[key]; ok {
				assert.Equal(t, prev, part, "date %s appears in both %s and %s", key, prev, part)
			}
			seen[key] = part
		}
	}
	record("train", split.Train)
	record("val", split.Val)
	record("test", split.Test)
}

func TestSplitChronological_SortsUnorderedInput(t *testing.T) {
	counts := map[int]int{0: 2, 5: 2, 10: 2, 15: 2, 20: 2, 25: 2, 30: 2, 35: 2, 40: 2, 45: 2}
	rows := rowsOnDates(counts)
	// reverse
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	split, err := SplitChronological(rows, 0.6, 0.2)
	require.NoError(t, err)
	for i := 1; i < len(split.Train); i++ {
		assert.False(t, split.Train[i].Date.Before(split.Train[i-1].Date))
	}
}

func TestSplitChronological_RejectsNarrowRanges(t *testing.T) {
	_, err := SplitChronological(rowsOnDates(map[int]int{0: 10}), 0.7, 0.15)
	assert.Error(t, err, "a single date cannot form three splits")

	_, err = SplitChronological(rowsOnDates(map[int]int{0: 1, 1: 1}), 0.7, 0.15)
	assert.Error(t, err)

	_, err = SplitChronological(rowsOnDates(map[int]int{0: 2, 1: 2, 2: 2}), 0.9, 0.2)
	assert.Error(t, err, "fractions must leave room for a test split")
}

func TestEvaluate_Metrics(t *testing.T) {
	y := []float64{0, 2, 4, 6}
	preds := []float64{0, 2, 4, 6}
	m := Evaluate(y, preds)
	assert.Equal(t, 1.0, m.R2)
	assert.Equal(t, 0.0, m.RMSE)
	assert.Equal(t, 4, m.N)

	m = Evaluate([]float64{0, 10}, []float64{1, 8})
	assert.InDelta(t, 1.5, m.MAE, 1e-9)
	// zero-demand day uses a denominator of 1 instead of exploding
	assert.InDelta(t, (1.0/1+2.0/10)/2, m.MAPE, 1e-9)
}
