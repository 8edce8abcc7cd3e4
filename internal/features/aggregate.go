package features

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Samer-Is/RPI/internal/domain"
)

// seriesKey identifies one (branch, category) demand series.
type seriesKey struct {
	BranchID   int64
	CategoryID int64
}

// Aggregate groups cleaned transactions into daily aggregate rows, one per
// observed (date, branch, category). Non-positive rates and rates at or above
// the outlier ceiling are dropped as data-entry errors before grouping.
// Single-booking days get StdPrice 0.
func Aggregate(txs []domain.Transaction, maxDailyRate float64, densify bool) ([]domain.DailyAggregate, error) {
	type acc struct {
		prices []float64
	}

	kept := 0
	groups := map[seriesKey]map[time.Time]*acc{}
	for _, tx := range txs {
		if tx.DailyRate <= 0 || tx.DailyRate >= maxDailyRate {
			continue
		}
		kept++
		key := seriesKey{BranchID: tx.BranchID, CategoryID: tx.CategoryID}
		day := truncateDay(tx.Start)
		byDay, ok := groups[key]
		if !ok {
			byDay = map[time.Time]*acc{}
			groups[key] = byDay
		}
		a, ok := byDay[day]
		if !ok {
			a = &acc{}
			byDay[day] = a
		}
		a.prices = append(a.prices, tx.DailyRate)
	}
	if kept == 0 {
		return nil, fmt.Errorf("aggregation: no transactions survived rate filtering (%d input rows)", len(txs))
	}

	rows := make([]domain.DailyAggregate, 0, kept)
	for key, byDay := range groups {
		for day, a := range byDay {
			mean, std := meanStd(a.prices)
			rows = append(rows, domain.DailyAggregate{
				Date:       day,
				BranchID:   key.BranchID,
				CategoryID: key.CategoryID,
				Bookings:   float64(len(a.prices)),
				AvgPrice:   mean,
				StdPrice:   std,
			})
		}
	}

	sortAggregates(rows)
	if densify {
		rows = densifyGaps(rows)
	}

	log.Info().
		Int("transactions", len(txs)).
		Int("kept", kept).
		Int("daily_rows", len(rows)).
		Bool("densified", densify).
		Msg("transactions aggregated")
	return rows, nil
}

// densifyGaps inserts zero-booking rows for dates missing inside each series'
// observed span. A day inside the span with no bookings is zero demand, not
// missing data; gaps would otherwise shorten lag and rolling windows. The
// synthesized row carries the last observed price forward so price-change
// features stay flat across it.
func densifyGaps(rows []domain.DailyAggregate) []domain.DailyAggregate {
	out := make([]domain.DailyAggregate, 0, len(rows))
	var (
		cur      seriesKey
		havePrev bool
		prev     domain.DailyAggregate
	)
	for _, row := range rows {
		key := seriesKey{BranchID: row.BranchID, CategoryID: row.CategoryID}
		if key != cur {
			cur = key
			havePrev = false
		}
		if havePrev {
			for d := prev.Date.AddDate(0, 0, 1); d.Before(row.Date); d = d.AddDate(0, 0, 1) {
				out = append(out, domain.DailyAggregate{
					Date:       d,
					BranchID:   row.BranchID,
					CategoryID: row.CategoryID,
					Bookings:   0,
					AvgPrice:   prev.AvgPrice,
					StdPrice:   0,
					Densified:  true,
				})
			}
		}
		out = append(out, row)
		prev = row
		havePrev = true
	}
	return out
}

// sortAggregates orders rows by (branch, category, date), the order every
// per-series scan depends on.
func sortAggregates(rows []domain.DailyAggregate) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.BranchID != b.BranchID {
			return a.BranchID < b.BranchID
		}
		if a.CategoryID != b.CategoryID {
			return a.CategoryID < b.CategoryID
		}
		return a.Date.Before(b.Date)
	})
}

// meanStd returns the mean and sample standard deviation; a single
// observation has std 0.
func meanStd(xs []float64) (float64, float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / n
	if n < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
