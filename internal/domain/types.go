package domain

import "time"

// Transaction is one historical rental contract, the source of truth for all
// downstream aggregation. Immutable once ingested.
type Transaction struct {
	ID           int64     `json:"id" db:"id"`
	BranchID     int64     `json:"branch_id" db:"pickup_branch_id"`
	CategoryID   int64     `json:"category_id" db:"category_id"`
	DailyRate    float64   `json:"daily_rate" db:"daily_rate_amount"`
	Start        time.Time `json:"start" db:"start_ts"`
	DurationDays int       `json:"duration_days" db:"duration_days"`
}

// DailyAggregate is the primary modeling unit: one (date, branch, category)
// key with its booking count and price statistics for that day.
type DailyAggregate struct {
	Date       time.Time `json:"date"`
	BranchID   int64     `json:"branch_id"`
	CategoryID int64     `json:"category_id"`
	Bookings   float64   `json:"bookings"`
	AvgPrice   float64   `json:"avg_price"`
	StdPrice   float64   `json:"std_price"`

	// Densified marks a zero-booking day synthesized to close a gap in the
	// series. AvgPrice on such rows carries the last observed price forward.
	Densified bool `json:"densified,omitempty"`
}

// FeatureRow is a daily aggregate with its derived feature values attached.
// Values is keyed by canonical feature column name; missing (not yet imputed)
// values are stored as NaN.
type FeatureRow struct {
	Date       time.Time          `json:"date"`
	BranchID   int64              `json:"branch_id"`
	CategoryID int64              `json:"category_id"`
	Bookings   float64            `json:"bookings"`
	Values     map[string]float64 `json:"values"`
}

// Prediction is the hybrid combiner output for a single (price, branch,
// category, date) query.
type Prediction struct {
	FinalDemand      float64 `json:"final_demand"`
	BaselineDemand   float64 `json:"baseline_demand"`
	ElasticityFactor float64 `json:"elasticity_factor"`
	Confidence       string  `json:"confidence"`
	Explanation      string  `json:"explanation"`
	BaselineUsed     bool    `json:"baseline_model_used"`
	ElasticityUsed   bool    `json:"elasticity_model_used"`
}

// Confidence tiers for hybrid predictions.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// PricePoint is one row of the price-sweep optimizer output.
type PricePoint struct {
	Price            float64 `json:"price"`
	PredictedDemand  float64 `json:"predicted_demand"`
	ExpectedRevenue  float64 `json:"expected_revenue"`
	BaselineDemand   float64 `json:"baseline_demand"`
	ElasticityFactor float64 `json:"elasticity_factor"`
	IsOptimal        bool    `json:"is_optimal"`
}

// ValidationReport is the elasticity validator verdict for a training corpus.
type ValidationReport struct {
	GeneratedAt time.Time `json:"generated_at"`
	SampleRows  int       `json:"sample_rows"`

	PriceCV         float64 `json:"price_cv"`
	ChangeRate      float64 `json:"change_rate"`
	VariationStatus string  `json:"variation_status"`

	Elasticity         float64 `json:"elasticity"`
	RSquared           float64 `json:"r_squared"`
	PValue             float64 `json:"p_value"`
	ElasticityCategory string  `json:"elasticity_category"`
	Significance       string  `json:"significance"`

	VariationScore  int    `json:"variation_score"`
	ElasticityScore int    `json:"elasticity_score"`
	TotalScore      int    `json:"total_score"`
	Recommendation  string `json:"recommendation"`
	Summary         string `json:"summary"`

	Segments []SegmentElasticity `json:"segments,omitempty"`
}

// SegmentElasticity is a per-branch log-log regression result.
type SegmentElasticity struct {
	BranchID   int64   `json:"branch_id"`
	Elasticity float64 `json:"elasticity"`
	RSquared   float64 `json:"r_squared"`
	PValue     float64 `json:"p_value"`
	Days       int     `json:"days"`
}

// Validator recommendation tiers.
const (
	RecommendationApproved    = "APPROVED"
	RecommendationConditional = "CONDITIONAL"
	RecommendationNotReady    = "NOT_READY"
)
