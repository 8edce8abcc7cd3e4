package features

import (
	"math"
	"sort"

	"github.com/Samer-Is/RPI/internal/domain"
)

// ring is a fixed-size buffer of the most recent values pushed into a series
// scan. Lag and rolling features read it before the current day is pushed, so
// every derived value references strictly earlier rows only.
type ring struct {
	buf  []float64
	head int
	n    int
}

func newRing(size int) *ring {
	return &ring{buf: make([]float64, size)}
}

func (r *ring) push(v float64) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

// lag returns the value pushed k steps ago (1 = most recent).
func (r *ring) lag(k int) (float64, bool) {
	if k < 1 || k > r.n {
		return 0, false
	}
	idx := (r.head - k + len(r.buf)*2) % len(r.buf)
	return r.buf[idx], true
}

// trailing returns up to w most recent values, newest first.
func (r *ring) trailing(w int) []float64 {
	if w > r.n {
		w = r.n
	}
	out := make([]float64, 0, w)
	for k := 1; k <= w; k++ {
		v, _ := r.lag(k)
		out = append(out, v)
	}
	return out
}

// scanSeries walks one (branch, category) series in date order and fills the
// lag, rolling, trend and per-series price features for each row. The buffers
// are read before the row's own values are pushed, which keeps every feature
// strictly causal: a row's own-day price or demand never feeds its own
// features, only later rows'.
//
// Features whose horizon exceeds the available history are left as NaN for
// the imputation stage.
func scanSeries(aggs []domain.DailyAggregate, rows []domain.FeatureRow) {
	maxLag := DemandLags[len(DemandLags)-1]
	demand := newRing(maxLag)
	prices := newRing(maxLag)

	for i := range aggs {
		vals := rows[i].Values

		for _, lag := range DemandLags {
			v, ok := demand.lag(lag)
			setOpt(vals, DemandLagCol(lag), v, ok)
		}
		for _, w := range RollingWindows {
			window := demand.trailing(w)
			setWindowStats(vals, RollMeanCol(w), RollStdCol(w), window)
		}

		lag1, ok1 := demand.lag(1)
		lag7, ok7 := demand.lag(7)
		lag30, ok30 := demand.lag(30)
		setDiff(vals, ColDemandTrend7d, lag1, ok1, lag7, ok7)
		setDiff(vals, ColDemandTrend30d, lag7, ok7, lag30, ok30)
		setOpt(vals, ColDemandSameDayLastWeek, lag7, ok7)
		sd2, sdOK := demand.lag(14)
		setOpt(vals, ColDemandSameDayLast2Week, sd2, sdOK)

		price := aggs[i].AvgPrice
		vals[ColAvgPrice] = price
		vals[ColStdPrice] = aggs[i].StdPrice

		pLag1, pOK1 := prices.lag(1)
		pLag7, pOK7 := prices.lag(7)
		setPriceChange(vals, ColPriceChange1d, ColPriceChangePct1d, price, pLag1, pOK1)
		setPriceChange(vals, ColPriceChange7d, ColPriceChangePct7d, price, pLag7, pOK7)

		vol := prices.trailing(7)
		if len(vol) >= 2 {
			_, std := meanStd(vol)
			vals[ColPriceVolatility7d] = std
		} else {
			vals[ColPriceVolatility7d] = math.NaN()
		}

		demand.push(aggs[i].Bookings)
		prices.push(price)
	}
}

// expandingStat accumulates a running mean of prior prices.
type expandingStat struct {
	sum   float64
	count int
}

func (e *expandingStat) mean() (float64, bool) {
	if e.count == 0 {
		return 0, false
	}
	return e.sum / float64(e.count), true
}

func (e *expandingStat) add(v float64) {
	e.sum += v
	e.count++
}

// fillPriceDeviations computes each row's price deviation from the expanding
// historical mean of its branch and of its category. Rows are processed one
// calendar date at a time: every row of date D sees only prices from dates
// strictly before D, so same-day rows never feed each other.
func fillPriceDeviations(aggs []domain.DailyAggregate, rows []domain.FeatureRow) {
	order := make([]int, len(aggs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return aggs[order[a]].Date.Before(aggs[order[b]].Date)
	})

	branch := map[int64]*expandingStat{}
	category := map[int64]*expandingStat{}

	for start := 0; start < len(order); {
		end := start
		for end < len(order) && aggs[order[end]].Date.Equal(aggs[order[start]].Date) {
			end++
		}

		for _, idx := range order[start:end] {
			agg := aggs[idx]
			vals := rows[idx].Values
			setDeviation(vals, ColPriceVsBranchAvg, agg.AvgPrice, branch[agg.BranchID])
			setDeviation(vals, ColPriceVsCategory, agg.AvgPrice, category[agg.CategoryID])
		}
		for _, idx := range order[start:end] {
			agg := aggs[idx]
			if branch[agg.BranchID] == nil {
				branch[agg.BranchID] = &expandingStat{}
			}
			if category[agg.CategoryID] == nil {
				category[agg.CategoryID] = &expandingStat{}
			}
			branch[agg.BranchID].add(agg.AvgPrice)
			category[agg.CategoryID].add(agg.AvgPrice)
		}
		start = end
	}
}

func setDeviation(vals map[string]float64, col string, price float64, stat *expandingStat) {
	if stat == nil {
		vals[col] = math.NaN()
		return
	}
	mean, ok := stat.mean()
	if !ok {
		vals[col] = math.NaN()
		return
	}
	vals[col] = (price - mean) / math.Max(mean, 1)
}

func setOpt(vals map[string]float64, col string, v float64, ok bool) {
	if !ok {
		vals[col] = math.NaN()
		return
	}
	vals[col] = v
}

func setDiff(vals map[string]float64, col string, a float64, okA bool, b float64, okB bool) {
	if !okA || !okB {
		vals[col] = math.NaN()
		return
	}
	vals[col] = a - b
}

// setPriceChange fills an absolute and a percentage price delta. The
// percentage denominator is floored at 1 to avoid division blow-up on
// near-zero historical prices.
func setPriceChange(vals map[string]float64, absCol, pctCol string, price, lagPrice float64, ok bool) {
	if !ok {
		vals[absCol] = math.NaN()
		vals[pctCol] = math.NaN()
		return
	}
	delta := price - lagPrice
	vals[absCol] = delta
	vals[pctCol] = delta / math.Max(lagPrice, 1) * 100
}

func setWindowStats(vals map[string]float64, meanCol, stdCol string, window []float64) {
	if len(window) == 0 {
		vals[meanCol] = math.NaN()
		vals[stdCol] = math.NaN()
		return
	}
	mean, std := meanStd(window)
	vals[meanCol] = mean
	if len(window) < 2 {
		vals[stdCol] = math.NaN()
	} else {
		vals[stdCol] = std
	}
}
