// Package elasticity certifies whether historical pricing data carries enough
// variation and signal for the Stage 2 elasticity model to be trusted. It is
// a one-time/periodic audit run before elasticity-informed pricing goes live,
// not a per-request check.
package elasticity

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Samer-Is/RPI/internal/config"
	"github.com/Samer-Is/RPI/internal/domain"
)

// Variation status tiers.
const (
	VariationExcellent    = "EXCELLENT"
	VariationGood         = "GOOD"
	VariationWeak         = "WEAK"
	VariationInsufficient = "INSUFFICIENT"
)

// Elasticity categories by log-log slope magnitude.
const (
	CategoryInelastic         = "INELASTIC"
	CategorySlightlyElastic   = "SLIGHTLY_ELASTIC"
	CategoryModeratelyElastic = "MODERATELY_ELASTIC"
	CategoryHighlyElastic     = "HIGHLY_ELASTIC"
	CategoryUnknown           = "UNKNOWN"
)

// Significance verdicts.
const (
	Significant    = "SIGNIFICANT"
	NotSignificant = "NOT_SIGNIFICANT"
	UnknownSignal  = "UNKNOWN"
)

// Validator runs the statistical audit over daily aggregates.
type Validator struct {
	cfg config.ValidatorConfig
}

// NewValidator wires a validator with its configuration.
func NewValidator(cfg config.ValidatorConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate computes the price-variation and elasticity-signal sub-scores and
// maps their total to a deployment recommendation. Statistical insignificance
// is a legitimate outcome that downgrades the verdict, never an error.
func (v *Validator) Validate(aggs []domain.DailyAggregate) (*domain.ValidationReport, error) {
	if len(aggs) == 0 {
		return nil, fmt.Errorf("validation: no daily aggregates supplied")
	}

	report := &domain.ValidationReport{
		GeneratedAt: time.Now().UTC(),
		SampleRows:  len(aggs),
	}

	report.PriceCV = priceCV(aggs)
	report.ChangeRate = priceChangeRate(aggs)
	report.VariationStatus = variationStatus(report.PriceCV, report.ChangeRate)
	report.VariationScore = variationScore(report.VariationStatus)

	v.fillElasticitySignal(aggs, report)
	v.fillSegments(aggs, report)

	report.TotalScore = report.VariationScore + report.ElasticityScore
	switch {
	case report.TotalScore >= 6:
		report.Recommendation = domain.RecommendationApproved
	case report.TotalScore >= 4:
		report.Recommendation = domain.RecommendationConditional
	default:
		report.Recommendation = domain.RecommendationNotReady
	}
	report.Summary = summarize(report)

	log.Info().
		Str("variation", report.VariationStatus).
		Str("elasticity", report.ElasticityCategory).
		Str("significance", report.Significance).
		Int("score", report.TotalScore).
		Str("recommendation", report.Recommendation).
		Msg("elasticity validation complete")
	return report, nil
}

// fillElasticitySignal runs the log-log regression of demand on price over
// rows with positive bookings.
func (v *Validator) fillElasticitySignal(aggs []domain.DailyAggregate, report *domain.ValidationReport) {
	logPrice, logDemand := logPairs(aggs)

	if len(logPrice) < v.cfg.MinSampleRows {
		report.ElasticityCategory = CategoryUnknown
		report.Significance = UnknownSignal
		report.ElasticityScore = 1
		return
	}

	fit, err := Regress(logPrice, logDemand)
	if err != nil {
		// Degenerate pricing (zero variance) means no measurable signal.
		report.ElasticityCategory = CategoryUnknown
		report.Significance = UnknownSignal
		report.ElasticityScore = 1
		return
	}

	report.Elasticity = fit.Slope
	report.RSquared = fit.R * fit.R
	report.PValue = fit.PValue
	report.ElasticityCategory = elasticityCategory(fit.Slope)

	if fit.PValue < v.cfg.Alpha {
		report.Significance = Significant
		report.ElasticityScore = 4
	} else {
		report.Significance = NotSignificant
		if math.Abs(fit.Slope) > 0.1 {
			report.ElasticityScore = 2
		} else {
			report.ElasticityScore = 1
		}
	}
}

// fillSegments regresses the top branches by row volume individually.
func (v *Validator) fillSegments(aggs []domain.DailyAggregate, report *domain.ValidationReport) {
	rowsByBranch := map[int64][]domain.DailyAggregate{}
	for _, a := range aggs {
		rowsByBranch[a.BranchID] = append(rowsByBranch[a.BranchID], a)
	}

	branches := make([]int64, 0, len(rowsByBranch))
	for id := range rowsByBranch {
		branches = append(branches, id)
	}
	sort.Slice(branches, func(i, j int) bool {
		bi, bj := branches[i], branches[j]
		if len(rowsByBranch[bi]) != len(rowsByBranch[bj]) {
			return len(rowsByBranch[bi]) > len(rowsByBranch[bj])
		}
		return bi < bj
	})
	if len(branches) > v.cfg.TopBranches {
		branches = branches[:v.cfg.TopBranches]
	}

	for _, id := range branches {
		logPrice, logDemand := logPairs(rowsByBranch[id])
		if len(logPrice) <= v.cfg.SegmentMinDays {
			continue
		}
		fit, err := Regress(logPrice, logDemand)
		if err != nil {
			continue
		}
		report.Segments = append(report.Segments, domain.SegmentElasticity{
			BranchID:   id,
			Elasticity: fit.Slope,
			RSquared:   fit.R * fit.R,
			PValue:     fit.PValue,
			Days:       fit.N,
		})
	}
}

func logPairs(aggs []domain.DailyAggregate) ([]float64, []float64) {
	logPrice := make([]float64, 0, len(aggs))
	logDemand := make([]float64, 0, len(aggs))
	for _, a := range aggs {
		if a.Bookings <= 0 || a.AvgPrice <= 0 {
			continue
		}
		lp := math.Log(a.AvgPrice)
		ld := math.Log(a.Bookings)
		if math.IsInf(lp, 0) || math.IsInf(ld, 0) || math.IsNaN(lp) || math.IsNaN(ld) {
			continue
		}
		logPrice = append(logPrice, lp)
		logDemand = append(logDemand, ld)
	}
	return logPrice, logDemand
}

// priceCV is the coefficient of variation (sample std over mean) of the daily
// mean rate across observed aggregate rows. Densified gap rows carry a
// synthetic forward-filled price and are excluded: they measure neither
// pricing behavior nor its variation.
func priceCV(aggs []domain.DailyAggregate) float64 {
	sum, n := 0.0, 0.0
	for _, a := range aggs {
		if a.Densified {
			continue
		}
		sum += a.AvgPrice
		n++
	}
	if n < 2 {
		return 0
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}
	ss := 0.0
	for _, a := range aggs {
		if a.Densified {
			continue
		}
		d := a.AvgPrice - mean
		ss += d * d
	}
	return math.Sqrt(ss/(n-1)) / mean
}

// priceChangeRate is the fraction of transitions between consecutive observed
// days within a (branch, category) series where the mean price actually
// moved. Densified gap rows are excluded for the same reason as in priceCV:
// their forward-filled prices would count as spurious no-change transitions.
func priceChangeRate(aggs []domain.DailyAggregate) float64 {
	sorted := make([]domain.DailyAggregate, 0, len(aggs))
	for _, a := range aggs {
		if !a.Densified {
			sorted = append(sorted, a)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.BranchID != b.BranchID {
			return a.BranchID < b.BranchID
		}
		if a.CategoryID != b.CategoryID {
			return a.CategoryID < b.CategoryID
		}
		return a.Date.Before(b.Date)
	})

	transitions, changed := 0, 0
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.BranchID != cur.BranchID || prev.CategoryID != cur.CategoryID {
			continue
		}
		transitions++
		if cur.AvgPrice != prev.AvgPrice {
			changed++
		}
	}
	if transitions == 0 {
		return 0
	}
	return float64(changed) / float64(transitions)
}

func variationStatus(cv, changeRate float64) string {
	switch {
	case cv > 0.30 && changeRate > 0.30:
		return VariationExcellent
	case cv > 0.20 && changeRate > 0.20:
		return VariationGood
	case cv > 0.10 && changeRate > 0.10:
		return VariationWeak
	default:
		return VariationInsufficient
	}
}

func variationScore(status string) int {
	switch status {
	case VariationExcellent:
		return 4
	case VariationGood:
		return 3
	case VariationWeak:
		return 2
	default:
		return 1
	}
}

func elasticityCategory(slope float64) string {
	abs := math.Abs(slope)
	switch {
	case abs < 0.1:
		return CategoryInelastic
	case abs < 0.5:
		return CategorySlightlyElastic
	case abs < 1.0:
		return CategoryModeratelyElastic
	default:
		return CategoryHighlyElastic
	}
}

func summarize(r *domain.ValidationReport) string {
	verdict := map[string]string{
		domain.RecommendationApproved:    "approved for full hybrid deployment",
		domain.RecommendationConditional: "conditional: deploy with adjusted elasticity clamp and low-confidence flagging",
		domain.RecommendationNotReady:    "not ready: use the baseline model only until pricing variation improves",
	}[r.Recommendation]

	return fmt.Sprintf(
		"price variation %s (CV %.2f%%, change rate %.1f%%); elasticity %.3f (%s, %s, p=%.4f); score %d/8: %s",
		r.VariationStatus, r.PriceCV*100, r.ChangeRate*100,
		r.Elasticity, r.ElasticityCategory, r.Significance, r.PValue,
		r.TotalScore, verdict,
	)
}
