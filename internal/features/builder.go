package features

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Samer-Is/RPI/internal/calendar"
	"github.com/Samer-Is/RPI/internal/domain"
)

// BuilderConfig controls feature-table construction.
type BuilderConfig struct {
	MaxDailyRate   float64
	MinHistoryDays int
	DensifyGaps    bool
}

// Builder turns raw transactions into the fully-featured daily-aggregate
// table. Output is deterministic for identical input; the table is cache, not
// source of truth, and is recomputed in full on each training run.
type Builder struct {
	cfg      BuilderConfig
	calendar *calendar.Table
}

// Result is a built feature table plus the frozen context needed to encode
// inference rows the same way the training rows were encoded.
type Result struct {
	Rows       []domain.FeatureRow
	Aggregates []domain.DailyAggregate // post-densify, pre-history-filter
	Columns    []string
	Buckets    *Buckets
	Reference  ReferencePrices
}

// NewBuilder wires a builder with its calendar collaborator. A nil table is
// allowed; event features stay neutral.
func NewBuilder(cfg BuilderConfig, cal *calendar.Table) *Builder {
	if cal == nil {
		cal = calendar.Empty()
	}
	return &Builder{cfg: cfg, calendar: cal}
}

// Build produces the feature table. Rows whose series history is shorter than
// MinHistoryDays are dropped: their lag features are undefined and would
// teach the models a false no-history pattern. Missing values are left as NaN
// for the training harness to impute with medians fitted on its train split.
func (b *Builder) Build(txs []domain.Transaction) (*Result, error) {
	started := time.Now()

	aggs, err := Aggregate(txs, b.cfg.MaxDailyRate, b.cfg.DensifyGaps)
	if err != nil {
		return nil, fmt.Errorf("feature build: %w", err)
	}

	rows := make([]domain.FeatureRow, len(aggs))
	for i, agg := range aggs {
		vals := make(map[string]float64, 96)
		TemporalValues(agg.Date, vals)
		EventValues(b.calendar.Lookup(agg.Date), vals)
		rows[i] = domain.FeatureRow{
			Date:       agg.Date,
			BranchID:   agg.BranchID,
			CategoryID: agg.CategoryID,
			Bookings:   agg.Bookings,
			Values:     vals,
		}
	}

	// Per-series sequential scans over (branch, category) groups; aggs are
	// already sorted by (branch, category, date).
	for start := 0; start < len(aggs); {
		end := start
		key := seriesKey{BranchID: aggs[start].BranchID, CategoryID: aggs[start].CategoryID}
		for end < len(aggs) && aggs[end].BranchID == key.BranchID && aggs[end].CategoryID == key.CategoryID {
			end++
		}
		scanSeries(aggs[start:end], rows[start:end])
		start = end
	}

	fillPriceDeviations(aggs, rows)

	buckets := FitBuckets(aggs)
	for i := range rows {
		rows[i].Values[ColBranchSizeBucket] = buckets.BranchBucket(rows[i].BranchID)
		rows[i].Values[ColCategoryPopularityBkt] = buckets.CategoryBucket(rows[i].CategoryID)
	}

	kept := b.filterShortHistory(aggs, rows)

	res := &Result{
		Rows:       kept,
		Aggregates: aggs,
		Columns:    AllColumns(),
		Buckets:    buckets,
		Reference:  FitReferencePrices(txs, b.cfg.MaxDailyRate),
	}

	log.Info().
		Int("rows", len(kept)).
		Int("dropped_short_history", len(aggs)-len(kept)).
		Int("columns", len(res.Columns)).
		Dur("elapsed", time.Since(started)).
		Msg("feature table built")
	return res, nil
}

// filterShortHistory removes rows whose position within their series is below
// the minimum lag horizon.
func (b *Builder) filterShortHistory(aggs []domain.DailyAggregate, rows []domain.FeatureRow) []domain.FeatureRow {
	kept := make([]domain.FeatureRow, 0, len(rows))
	seriesPos := 0
	var cur seriesKey
	for i := range aggs {
		key := seriesKey{BranchID: aggs[i].BranchID, CategoryID: aggs[i].CategoryID}
		if i == 0 || key != cur {
			cur = key
			seriesPos = 0
		}
		if seriesPos >= b.cfg.MinHistoryDays {
			kept = append(kept, rows[i])
		}
		seriesPos++
	}
	return kept
}

// ReferencePrices holds the historical mean daily rate per (branch, category),
// the reference point for elasticity-factor derivation.
type ReferencePrices map[string]float64

// RefKey builds the map key for a (branch, category) pair.
func RefKey(branchID, categoryID int64) string {
	return strconv.FormatInt(branchID, 10) + ":" + strconv.FormatInt(categoryID, 10)
}

// FitReferencePrices computes the mean cleaned daily rate per series from raw
// transactions, applying the same outlier filter as aggregation.
func FitReferencePrices(txs []domain.Transaction, maxDailyRate float64) ReferencePrices {
	sums := map[string]*expandingStat{}
	for _, tx := range txs {
		if tx.DailyRate <= 0 || tx.DailyRate >= maxDailyRate {
			continue
		}
		key := RefKey(tx.BranchID, tx.CategoryID)
		if sums[key] == nil {
			sums[key] = &expandingStat{}
		}
		sums[key].add(tx.DailyRate)
	}
	out := make(ReferencePrices, len(sums))
	for key, stat := range sums {
		if mean, ok := stat.mean(); ok && !math.IsNaN(mean) {
			out[key] = mean
		}
	}
	return out
}

// Lookup returns the reference price for a series and whether one exists.
func (r ReferencePrices) Lookup(branchID, categoryID int64) (float64, bool) {
	v, ok := r[RefKey(branchID, categoryID)]
	return v, ok
}
