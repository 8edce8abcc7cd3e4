// Package pricing combines the two trained stages into demand predictions
// and revenue-optimal price recommendations.
package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Samer-Is/RPI/internal/calendar"
	"github.com/Samer-Is/RPI/internal/config"
	"github.com/Samer-Is/RPI/internal/domain"
	"github.com/Samer-Is/RPI/internal/features"
	"github.com/Samer-Is/RPI/internal/train"
)

// Engine is the hybrid combiner: Stage 1 supplies a price-independent
// baseline, Stage 2 supplies a multiplicative elasticity factor derived from
// the ratio of predicted demand at the requested price versus the series
// reference price.
type Engine struct {
	cfg      config.PricingConfig
	baseline *train.Artifact
	elastic  *train.Artifact
	cal      *calendar.Table

	clampLow      float64
	clampHigh     float64
	useElasticity bool
	lowConfidence bool
}

// NewEngine wires loaded artifacts into a combiner. The baseline artifact is
// mandatory; a nil elasticity artifact degrades the engine to a neutral
// factor of 1.0 rather than failing.
func NewEngine(baseline, elastic *train.Artifact, cal *calendar.Table, cfg config.PricingConfig) (*Engine, error) {
	if baseline == nil {
		return nil, fmt.Errorf("pricing: baseline artifact is required")
	}
	if elastic == nil {
		log.Warn().Msg("elasticity artifact unavailable, factor pinned to 1.0")
	}
	return &Engine{
		cfg:           cfg,
		baseline:      baseline,
		elastic:       elastic,
		cal:           cal,
		clampLow:      cfg.ClampLow,
		clampHigh:     cfg.ClampHigh,
		useElasticity: elastic != nil,
	}, nil
}

// LoadEngine builds an engine from the latest artifacts in dir. A missing or
// corrupt baseline artifact is fatal; a missing elasticity artifact only
// degrades the engine.
func LoadEngine(dir string, cal *calendar.Table, cfg config.PricingConfig) (*Engine, error) {
	baseline, err := train.LoadArtifact(train.LatestPath(dir, train.StageBaseline))
	if err != nil {
		return nil, fmt.Errorf("load baseline artifact: %w", err)
	}
	elastic, err := train.LoadArtifact(train.LatestPath(dir, train.StageElasticity))
	if err != nil {
		log.Warn().Err(err).Msg("elasticity artifact not loaded, degrading to baseline-only")
		elastic = nil
	}
	return NewEngine(baseline, elastic, cal, cfg)
}

// ApplyValidation tightens or disables the elasticity stage according to the
// validator verdict. NOT_READY pins the factor to 1.0; CONDITIONAL narrows
// the clamp band and flags predictions as lower confidence.
func (e *Engine) ApplyValidation(report *domain.ValidationReport) {
	if report == nil {
		return
	}
	switch report.Recommendation {
	case domain.RecommendationNotReady:
		e.useElasticity = false
		log.Warn().Msg("elasticity validation NOT_READY, factor pinned to 1.0")
	case domain.RecommendationConditional:
		e.clampLow = e.cfg.ConditionalClampLow
		e.clampHigh = e.cfg.ConditionalClampHigh
		e.lowConfidence = true
		log.Info().
			Float64("clamp_low", e.clampLow).
			Float64("clamp_high", e.clampHigh).
			Msg("elasticity validation CONDITIONAL, clamp narrowed")
	}
}

// DefaultSamples is the sweep grid resolution used when a caller does not
// specify one.
func (e *Engine) DefaultSamples() int {
	if e.cfg.OptimizerSamples >= 2 {
		return e.cfg.OptimizerSamples
	}
	return 10
}

// ElasticityActive reports whether Stage 2 is loaded and not disabled by a
// validation verdict.
func (e *Engine) ElasticityActive() bool {
	return e.elastic != nil && e.useElasticity
}

// Request is one demand query: a candidate daily rate for a branch/category
// pair on a given date. RecentDemand, when known, seeds the week-ago lag so
// the baseline is anchored to observed volume instead of the training median.
type Request struct {
	Price        float64
	BranchID     int64
	CategoryID   int64
	Date         time.Time
	RecentDemand *float64
}

// Validate rejects queries the engine cannot price.
func (r Request) Validate() error {
	if r.Price <= 0 {
		return fmt.Errorf("pricing: price must be positive, got %.2f", r.Price)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("pricing: date is required")
	}
	return nil
}

// Predict runs the two-stage combination for one request.
func (e *Engine) Predict(req Request) (domain.Prediction, error) {
	if err := req.Validate(); err != nil {
		return domain.Prediction{}, err
	}

	vals := e.featureMap(req)
	base, err := e.baseline.Predict(vals)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("baseline predict: %w", err)
	}

	factor := 1.0
	elasticityUsed := false
	if e.elastic != nil && e.useElasticity {
		factor, err = e.elasticityFactor(req, vals)
		if err != nil {
			return domain.Prediction{}, err
		}
		elasticityUsed = true
	}

	pred := domain.Prediction{
		FinalDemand:      base * factor,
		BaselineDemand:   base,
		ElasticityFactor: factor,
		BaselineUsed:     true,
		ElasticityUsed:   elasticityUsed,
	}
	pred.Confidence = e.confidence(elasticityUsed)
	pred.Explanation = explain(factor, elasticityUsed)
	return pred, nil
}

// elasticityFactor predicts demand at the requested price and again with the
// price feature swapped to the series reference, then clamps their ratio.
// A non-positive reference prediction yields the neutral factor.
func (e *Engine) elasticityFactor(req Request, vals map[string]float64) (float64, error) {
	atPrice, err := e.elastic.Predict(vals)
	if err != nil {
		return 0, fmt.Errorf("elasticity predict: %w", err)
	}

	ref := e.elastic.ReferencePrice(req.BranchID, req.CategoryID, e.cfg.DefaultReferencePrice)
	refVals := make(map[string]float64, len(vals))
	for k, v := range vals {
		refVals[k] = v
	}
	refVals[features.ColAvgPrice] = ref

	atRef, err := e.elastic.Predict(refVals)
	if err != nil {
		return 0, fmt.Errorf("elasticity reference predict: %w", err)
	}
	if atRef <= 0 {
		return 1.0, nil
	}
	return clamp(atPrice/atRef, e.clampLow, e.clampHigh), nil
}

func (e *Engine) confidence(elasticityUsed bool) string {
	if !elasticityUsed {
		return domain.ConfidenceMedium
	}
	if e.lowConfidence {
		return domain.ConfidenceMedium
	}
	return domain.ConfidenceHigh
}

// featureMap materializes every canonical column for one inference row.
// Demand-history columns without an observed value stay NaN so the frozen
// training medians fill them during encoding.
func (e *Engine) featureMap(req Request) map[string]float64 {
	vals := make(map[string]float64, 96)

	features.TemporalValues(req.Date, vals)
	features.EventValues(e.cal.Lookup(req.Date), vals)

	for _, col := range features.DemandHistoryColumns() {
		vals[col] = math.NaN()
	}
	if req.RecentDemand != nil {
		vals[features.DemandLagCol(7)] = *req.RecentDemand
		vals[features.ColDemandSameDayLastWeek] = *req.RecentDemand
	}

	ref := e.baseline.ReferencePrice(req.BranchID, req.CategoryID, e.cfg.DefaultReferencePrice)
	vals[features.ColAvgPrice] = req.Price
	vals[features.ColStdPrice] = 0
	vals[features.ColPriceChange1d] = 0
	vals[features.ColPriceChange7d] = 0
	vals[features.ColPriceChangePct1d] = 0
	vals[features.ColPriceChangePct7d] = 0
	vals[features.ColPriceVolatility7d] = 0
	deviation := (req.Price - ref) / math.Max(ref, 1)
	vals[features.ColPriceVsBranchAvg] = deviation
	vals[features.ColPriceVsCategory] = deviation

	buckets := e.baseline.Buckets
	vals[features.ColBranchSizeBucket] = buckets.BranchBucket(req.BranchID)
	vals[features.ColCategoryPopularityBkt] = buckets.CategoryBucket(req.CategoryID)
	return vals
}

// explain renders the elasticity factor as operator-facing text. The 5%
// thresholds separate meaningful demand shifts from noise.
func explain(factor float64, elasticityUsed bool) string {
	if !elasticityUsed {
		return "Baseline demand only; price sensitivity unavailable."
	}
	switch {
	case factor > 1.05:
		return fmt.Sprintf("Price favors demand: %.1f%% above baseline.", (factor-1)*100)
	case factor < 0.95:
		return fmt.Sprintf("Price suppresses demand: %.1f%% below baseline.", (1-factor)*100)
	default:
		return "Price is near the reference level; demand close to baseline."
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
