package train

import (
	"fmt"
	"sort"

	"github.com/Samer-Is/RPI/internal/domain"
)

// Split is a chronological train/validation/test partition. Boundaries fall
// on date changes so the ordering invariant
// max(train.date) < min(val.date) < max(val.date) < min(test.date)
// holds for any input; rows never shuffle and never appear in two splits.
type Split struct {
	Train []domain.FeatureRow
	Val   []domain.FeatureRow
	Test  []domain.FeatureRow
}

// SplitChronological sorts rows by date and slices them at the given
// fractions, advancing each boundary past ties so splits never share a date.
func SplitChronological(rows []domain.FeatureRow, trainFrac, valFrac float64) (*Split, error) {
	if len(rows) < 3 {
		return nil, fmt.Errorf("split: need at least 3 rows, got %d", len(rows))
	}
	if trainFrac <= 0 || valFrac <= 0 || trainFrac+valFrac >= 1 {
		return nil, fmt.Errorf("split: invalid fractions train=%f val=%f", trainFrac, valFrac)
	}

	sorted := append([]domain.FeatureRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	n := len(sorted)
	trainEnd := advancePastTies(sorted, int(float64(n)*trainFrac))
	valEnd := advancePastTies(sorted, int(float64(n)*(trainFrac+valFrac)))
	if valEnd <= trainEnd {
		valEnd = advancePastTies(sorted, trainEnd+1)
	}
	if trainEnd == 0 || valEnd <= trainEnd || valEnd >= n {
		return nil, fmt.Errorf("split: date range too narrow for a %0.f/%0.f/%0.f split",
			trainFrac*100, valFrac*100, (1-trainFrac-valFrac)*100)
	}

	return &Split{
		Train: sorted[:trainEnd],
		Val:   sorted[trainEnd:valEnd],
		Test:  sorted[valEnd:],
	}, nil
}

// advancePastTies moves a slice boundary forward until the date changes, so
// one calendar date never straddles two splits.
func advancePastTies(rows []domain.FeatureRow, idx int) int {
	for idx > 0 && idx < len(rows) && rows[idx].Date.Equal(rows[idx-1].Date) {
		idx++
	}
	return idx
}
