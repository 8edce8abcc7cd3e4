package features

import (
	"fmt"
	"math"

	"github.com/Samer-Is/RPI/internal/domain"
)

// Vector encodes feature maps into positional float64 slices following one
// canonical column order. It is constructed with the ordered column list of
// the model it feeds and fails loudly when a required value is absent,
// surfacing a data-quality error instead of silently zero-filling.
type Vector struct {
	columns []string
	index   map[string]int
}

// NewVector builds an encoder for the given canonical column order.
func NewVector(columns []string) *Vector {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c] = i
	}
	return &Vector{columns: append([]string(nil), columns...), index: idx}
}

// Columns returns the canonical order the encoder was built with.
func (v *Vector) Columns() []string {
	return append([]string(nil), v.columns...)
}

// Encode maps values into positional order. Absent columns are an error; NaN
// values are an error too unless an imputer is supplied to fill them.
func (v *Vector) Encode(vals map[string]float64, im *Imputer) ([]float64, error) {
	out := make([]float64, len(v.columns))
	for i, col := range v.columns {
		value, ok := vals[col]
		if !ok {
			return nil, fmt.Errorf("feature vector: required input %s is missing", col)
		}
		if math.IsNaN(value) {
			if im == nil {
				return nil, fmt.Errorf("feature vector: input %s is NaN and no imputer is set", col)
			}
			value = im.Fill(col)
		}
		out[i] = value
	}
	return out, nil
}

// Matrix encodes a row set into a design matrix plus its booking-count
// targets. Rows must already be imputed or an imputer must be given.
func (v *Vector) Matrix(rows []domain.FeatureRow, im *Imputer) ([][]float64, []float64, error) {
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, row := range rows {
		enc, err := v.Encode(row.Values, im)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d (%s branch=%d category=%d): %w",
				i, row.Date.Format("2006-01-02"), row.BranchID, row.CategoryID, err)
		}
		x[i] = enc
		y[i] = row.Bookings
	}
	return x, y, nil
}
