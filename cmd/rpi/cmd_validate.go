package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Samer-Is/RPI/internal/elasticity"
	rpiio "github.com/Samer-Is/RPI/internal/io"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check whether the data supports elasticity modeling",
	Long: `Run the elasticity validation gate over the aggregated history:
price variation, price-change rate and a log-log demand regression combine
into an APPROVED / CONDITIONAL / NOT_READY verdict. The report is written to
the report directory and picked up by predict, optimize and serve.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validationReportPath is where the latest verdict lives.
func validationReportPath(reportDir string) string {
	return filepath.Join(reportDir, "validation_latest.json")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := buildFeatures(ctx, cfg)
	if err != nil {
		return err
	}

	report, err := elasticity.NewValidator(cfg.Validator).Validate(res.Aggregates)
	if err != nil {
		return err
	}

	path := validationReportPath(cfg.Data.ReportDir)
	if err := rpiio.WriteJSONAtomic(path, report); err != nil {
		return err
	}

	log.Info().
		Str("recommendation", report.Recommendation).
		Int("score", report.TotalScore).
		Float64("price_cv", report.PriceCV).
		Float64("elasticity", report.Elasticity).
		Str("path", path).
		Msg("validation report written")
	return nil
}
