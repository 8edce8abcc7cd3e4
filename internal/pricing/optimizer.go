package pricing

import (
	"fmt"

	"github.com/Samer-Is/RPI/internal/domain"
)

// SweepRequest describes one price-grid optimization: evaluate Samples
// evenly spaced prices across [MinPrice, MaxPrice] inclusive and mark the
// revenue-maximizing point.
type SweepRequest struct {
	Request
	MinPrice float64
	MaxPrice float64
	Samples  int
}

// Validate rejects malformed sweep grids.
func (r SweepRequest) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("pricing: date is required")
	}
	if r.MinPrice <= 0 {
		return fmt.Errorf("pricing: min price must be positive, got %.2f", r.MinPrice)
	}
	if r.MaxPrice < r.MinPrice {
		return fmt.Errorf("pricing: max price %.2f below min price %.2f", r.MaxPrice, r.MinPrice)
	}
	if r.Samples < 2 {
		return fmt.Errorf("pricing: sweep needs at least 2 samples, got %d", r.Samples)
	}
	return nil
}

// OptimizePrice sweeps the price grid and returns one point per candidate
// price in ascending order. Exactly one point carries IsOptimal: the first
// occurrence of the maximum expected revenue, so ties resolve to the lowest
// price.
func (e *Engine) OptimizePrice(req SweepRequest) ([]domain.PricePoint, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	points := make([]domain.PricePoint, 0, req.Samples)
	best := 0
	step := (req.MaxPrice - req.MinPrice) / float64(req.Samples-1)
	for i := 0; i < req.Samples; i++ {
		price := req.MinPrice + step*float64(i)

		q := req.Request
		q.Price = price
		pred, err := e.Predict(q)
		if err != nil {
			return nil, fmt.Errorf("sweep at price %.2f: %w", price, err)
		}

		points = append(points, domain.PricePoint{
			Price:            price,
			PredictedDemand:  pred.FinalDemand,
			ExpectedRevenue:  price * pred.FinalDemand,
			BaselineDemand:   pred.BaselineDemand,
			ElasticityFactor: pred.ElasticityFactor,
		})
		if points[i].ExpectedRevenue > points[best].ExpectedRevenue {
			best = i
		}
	}
	points[best].IsOptimal = true
	return points, nil
}
