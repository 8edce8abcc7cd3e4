package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Samer-Is/RPI/internal/competitor"
	"github.com/Samer-Is/RPI/internal/domain"
	"github.com/Samer-Is/RPI/internal/pricing"
)

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// predictRequest is the body of POST /v1/predict.
type predictRequest struct {
	Price        float64  `json:"price"`
	BranchID     int64    `json:"branch_id"`
	CategoryID   int64    `json:"category_id"`
	Date         string   `json:"date"`
	RecentDemand *float64 `json:"recent_demand,omitempty"`
}

// optimizeRequest is the body of POST /v1/optimize. Branch and category
// names are optional scraper labels enabling the competitor comparison.
type optimizeRequest struct {
	BranchID     int64    `json:"branch_id"`
	CategoryID   int64    `json:"category_id"`
	Date         string   `json:"date"`
	MinPrice     float64  `json:"min_price"`
	MaxPrice     float64  `json:"max_price"`
	Samples      int      `json:"samples,omitempty"`
	RecentDemand *float64 `json:"recent_demand,omitempty"`
	BranchName   string   `json:"branch_name,omitempty"`
	CategoryName string   `json:"category_name,omitempty"`
}

// optimizeResponse pairs the sweep grid with the chosen point and, when the
// scraper labels are supplied, the market position of the chosen price.
type optimizeResponse struct {
	Points     []domain.PricePoint    `json:"points"`
	Optimal    domain.PricePoint      `json:"optimal"`
	Comparison *competitor.Comparison `json:"competitor_comparison,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":            "ok",
		"timestamp":         time.Now().UTC(),
		"elasticity_active": s.engine.ElasticityActive(),
	}
	if s.store != nil {
		health["competitor_index"] = s.store.Freshness(time.Now())
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body predictRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, "predict", http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		s.fail(w, "predict", http.StatusBadRequest, "invalid_date", err.Error())
		return
	}

	pred, err := s.engine.Predict(pricing.Request{
		Price:        body.Price,
		BranchID:     body.BranchID,
		CategoryID:   body.CategoryID,
		Date:         date,
		RecentDemand: body.RecentDemand,
	})
	if err != nil {
		s.fail(w, "predict", http.StatusUnprocessableEntity, "prediction_failed", err.Error())
		return
	}

	s.metrics.Predictions.WithLabelValues(pred.Confidence).Inc()
	s.metrics.ObserveRequest("predict", strconv.Itoa(http.StatusOK), time.Since(start))
	writeJSON(w, http.StatusOK, pred)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, "optimize", http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		s.fail(w, "optimize", http.StatusBadRequest, "invalid_date", err.Error())
		return
	}

	samples := body.Samples
	if samples == 0 {
		samples = s.engine.DefaultSamples()
	}
	points, err := s.engine.OptimizePrice(pricing.SweepRequest{
		Request: pricing.Request{
			BranchID:     body.BranchID,
			CategoryID:   body.CategoryID,
			Date:         date,
			RecentDemand: body.RecentDemand,
		},
		MinPrice: body.MinPrice,
		MaxPrice: body.MaxPrice,
		Samples:  samples,
	})
	if err != nil {
		s.fail(w, "optimize", http.StatusUnprocessableEntity, "sweep_failed", err.Error())
		return
	}
	s.metrics.SweepPoints.Add(float64(len(points)))

	resp := optimizeResponse{Points: points}
	for _, p := range points {
		if p.IsOptimal {
			resp.Optimal = p
			break
		}
	}
	if s.store != nil && body.BranchName != "" && body.CategoryName != "" {
		cmp := competitor.Compare(resp.Optimal.Price, s.store.Lookup(body.BranchName, body.CategoryName))
		resp.Comparison = &cmp
	}

	s.metrics.ObserveRequest("optimize", strconv.Itoa(http.StatusOK), time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	if s.report == nil {
		s.fail(w, "validation", http.StatusNotFound, "report_unavailable",
			"no validation report has been generated")
		return
	}
	writeJSON(w, http.StatusOK, s.report)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error:     http.StatusText(http.StatusNotFound),
		Message:   "the requested endpoint does not exist",
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) fail(w http.ResponseWriter, endpoint string, status int, code, message string) {
	s.metrics.RequestErrors.WithLabelValues(endpoint).Inc()
	writeJSON(w, status, errorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
