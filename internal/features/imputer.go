package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/Samer-Is/RPI/internal/domain"
)

// Imputer replaces NaN feature values with per-column medians. Medians are
// fitted on the training split only, then frozen into the model artifact and
// reused unchanged for validation, test and inference rows, so imputation
// never sees future information.
type Imputer struct {
	Medians map[string]float64 `json:"medians"`
}

// FitImputer computes the per-column median over the finite values of the
// given rows. Columns with no finite value at all fall back to 0.
func FitImputer(rows []domain.FeatureRow, columns []string) *Imputer {
	medians := make(map[string]float64, len(columns))
	buf := make([]float64, 0, len(rows))
	for _, col := range columns {
		buf = buf[:0]
		for _, row := range rows {
			if v, ok := row.Values[col]; ok && !math.IsNaN(v) {
				buf = append(buf, v)
			}
		}
		medians[col] = median(buf)
	}
	return &Imputer{Medians: medians}
}

// Apply fills NaN values in place. A column that is entirely absent from a
// row is a data-quality error: the builder always materializes every
// canonical column, so absence means the row was constructed outside it.
func (im *Imputer) Apply(rows []domain.FeatureRow, columns []string) error {
	for i := range rows {
		for _, col := range columns {
			v, ok := rows[i].Values[col]
			if !ok {
				return fmt.Errorf("imputation: row %d missing column %s", i, col)
			}
			if math.IsNaN(v) {
				rows[i].Values[col] = im.Medians[col]
			}
		}
	}
	return nil
}

// Fill returns the imputation value for one column.
func (im *Imputer) Fill(col string) float64 {
	return im.Medians[col]
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
