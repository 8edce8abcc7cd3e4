package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Samer-Is/RPI/internal/competitor"
	"github.com/Samer-Is/RPI/internal/domain"
	"github.com/Samer-Is/RPI/internal/pricing"
)

var (
	optBranch       int64
	optCategory     int64
	optDate         string
	optMinPrice     float64
	optMaxPrice     float64
	optSamples      int
	optDemand       float64
	optBranchName   string
	optCategoryName string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Sweep a price grid and recommend the revenue-optimal rate",
	Long: `Evaluate evenly spaced candidate prices for one branch/category/date
and mark the price with the highest expected revenue. Supplying the scraper's
branch and category labels adds a market-position comparison against the
stored competitor prices.`,
	RunE: runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.Flags().Int64Var(&optBranch, "branch", 0, "pickup branch id")
	optimizeCmd.Flags().Int64Var(&optCategory, "category", 0, "vehicle category id")
	optimizeCmd.Flags().StringVar(&optDate, "date", "", "target date (YYYY-MM-DD)")
	optimizeCmd.Flags().Float64Var(&optMinPrice, "min-price", 0, "grid lower bound")
	optimizeCmd.Flags().Float64Var(&optMaxPrice, "max-price", 0, "grid upper bound")
	optimizeCmd.Flags().IntVar(&optSamples, "samples", 0, "grid resolution (default from config)")
	optimizeCmd.Flags().Float64Var(&optDemand, "recent-demand", -1, "observed bookings one week ago (optional)")
	optimizeCmd.Flags().StringVar(&optBranchName, "branch-name", "", "scraper branch label for competitor comparison")
	optimizeCmd.Flags().StringVar(&optCategoryName, "category-name", "", "scraper category label for competitor comparison")
	optimizeCmd.MarkFlagRequired("date")
	optimizeCmd.MarkFlagRequired("min-price")
	optimizeCmd.MarkFlagRequired("max-price")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, _, err := loadEngine(cfg)
	if err != nil {
		return err
	}

	date, err := time.Parse("2006-01-02", optDate)
	if err != nil {
		return err
	}
	samples := optSamples
	if samples == 0 {
		samples = engine.DefaultSamples()
	}

	req := pricing.SweepRequest{
		Request: pricing.Request{
			BranchID:   optBranch,
			CategoryID: optCategory,
			Date:       date,
		},
		MinPrice: optMinPrice,
		MaxPrice: optMaxPrice,
		Samples:  samples,
	}
	if optDemand >= 0 {
		req.RecentDemand = &optDemand
	}

	points, err := engine.OptimizePrice(req)
	if err != nil {
		return err
	}

	out := struct {
		Points     []domain.PricePoint    `json:"points"`
		Comparison *competitor.Comparison `json:"competitor_comparison,omitempty"`
	}{Points: points}
	if optBranchName != "" && optCategoryName != "" {
		if store, err := competitor.NewStore(cfg.Data.CompetitorJSON); err != nil {
			log.Warn().Err(err).Msg("competitor comparison skipped")
		} else {
			for _, p := range points {
				if p.IsOptimal {
					cmp := competitor.Compare(p.Price, store.Lookup(optBranchName, optCategoryName))
					out.Comparison = &cmp
					break
				}
			}
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
