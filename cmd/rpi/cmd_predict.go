package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Samer-Is/RPI/internal/calendar"
	"github.com/Samer-Is/RPI/internal/config"
	"github.com/Samer-Is/RPI/internal/domain"
	rpiio "github.com/Samer-Is/RPI/internal/io"
	"github.com/Samer-Is/RPI/internal/pricing"
)

var (
	predictPrice    float64
	predictBranch   int64
	predictCategory int64
	predictDate     string
	predictDemand   float64
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict demand for one price/branch/category/date",
	RunE:  runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().Float64Var(&predictPrice, "price", 0, "candidate daily rate")
	predictCmd.Flags().Int64Var(&predictBranch, "branch", 0, "pickup branch id")
	predictCmd.Flags().Int64Var(&predictCategory, "category", 0, "vehicle category id")
	predictCmd.Flags().StringVar(&predictDate, "date", "", "target date (YYYY-MM-DD)")
	predictCmd.Flags().Float64Var(&predictDemand, "recent-demand", -1, "observed bookings one week ago (optional)")
	predictCmd.MarkFlagRequired("price")
	predictCmd.MarkFlagRequired("date")
}

// loadEngine assembles the hybrid combiner from the latest artifacts and
// applies the stored validation verdict when one exists.
func loadEngine(cfg *config.Config) (*pricing.Engine, *domain.ValidationReport, error) {
	cal, err := calendar.LoadCSV(cfg.Data.CalendarCSV)
	if err != nil {
		return nil, nil, err
	}
	engine, err := pricing.LoadEngine(cfg.Data.ArtifactDir, cal, cfg.Pricing)
	if err != nil {
		return nil, nil, err
	}

	var report domain.ValidationReport
	if err := rpiio.ReadJSON(validationReportPath(cfg.Data.ReportDir), &report); err != nil {
		log.Debug().Err(err).Msg("no validation report applied")
		return engine, nil, nil
	}
	engine.ApplyValidation(&report)
	return engine, &report, nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, _, err := loadEngine(cfg)
	if err != nil {
		return err
	}

	date, err := time.Parse("2006-01-02", predictDate)
	if err != nil {
		return err
	}
	req := pricing.Request{
		Price:      predictPrice,
		BranchID:   predictBranch,
		CategoryID: predictCategory,
		Date:       date,
	}
	if predictDemand >= 0 {
		req.RecentDemand = &predictDemand
	}

	pred, err := engine.Predict(req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pred)
}
