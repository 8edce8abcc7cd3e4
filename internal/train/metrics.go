package train

import "math"

// Metrics holds the regression quality numbers reported per split.
type Metrics struct {
	R2   float64 `json:"r2"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"`
	N    int     `json:"n"`
}

// Evaluate computes the metrics of predictions against targets. MAPE
// denominators are floored at 1 booking so zero-demand days do not blow the
// percentage up.
func Evaluate(y, preds []float64) Metrics {
	n := len(y)
	if n == 0 {
		return Metrics{}
	}

	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(n)

	var ssRes, ssTot, absSum, pctSum float64
	for i := range y {
		d := y[i] - preds[i]
		ssRes += d * d
		t := y[i] - meanY
		ssTot += t * t
		absSum += math.Abs(d)
		pctSum += math.Abs(d) / math.Max(math.Abs(y[i]), 1)
	}

	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	return Metrics{
		R2:   r2,
		RMSE: math.Sqrt(ssRes / float64(n)),
		MAE:  absSum / float64(n),
		MAPE: pctSum / float64(n),
		N:    n,
	}
}
