package competitor

import "math"

// Market positions for a recommended price relative to competitors.
const (
	PositionBelowMarket = "BELOW_MARKET"
	PositionAtMarket    = "AT_MARKET"
	PositionAboveMarket = "ABOVE_MARKET"
	PositionNoData      = "NO_DATA"
)

// Comparison places a recommended price against the competitor average.
type Comparison struct {
	Recommended   float64 `json:"recommended_price"`
	CompetitorAvg float64 `json:"competitor_avg"`
	DeltaPct      float64 `json:"delta_pct"`
	Position      string  `json:"position"`
	Competitors   int     `json:"competitor_count"`
}

// Compare positions a recommended price against the competitor prices for
// one branch/category. Within 5% of the competitor average counts as
// at-market; no observations yields NO_DATA with a zero delta.
func Compare(recommended float64, prices Prices) Comparison {
	cmp := Comparison{Recommended: recommended, Competitors: prices.Count}
	if prices.Count == 0 || prices.AvgPrice <= 0 {
		cmp.Position = PositionNoData
		return cmp
	}

	cmp.CompetitorAvg = prices.AvgPrice
	cmp.DeltaPct = (recommended - prices.AvgPrice) / prices.AvgPrice * 100
	switch {
	case math.Abs(cmp.DeltaPct) <= 5:
		cmp.Position = PositionAtMarket
	case cmp.DeltaPct < 0:
		cmp.Position = PositionBelowMarket
	default:
		cmp.Position = PositionAboveMarket
	}
	return cmp
}
