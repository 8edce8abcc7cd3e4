package main

import (
	"context"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	rpiio "github.com/Samer-Is/RPI/internal/io"
)

var featuresOut string

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Build the feature table and dump it as CSV",
	Long: `Build the daily feature table from the configured transaction source
and write it to CSV for inspection. Missing values stay empty; the training
harness imputes them with medians fitted on its own train split.`,
	RunE: runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)
	featuresCmd.Flags().StringVar(&featuresOut, "out", "", "output CSV path (default <report_dir>/features.csv)")
}

func runFeatures(cmd *cobra.Command, args []string) error {
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

	out := featuresOut
	if out == "" {
		out = filepath.Join(cfg.Data.ReportDir, "features.csv")
	}

	header := append([]string{"Date", "BranchId", "CategoryId", "DailyBookings"}, res.Columns...)
	records := make([][]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec,
			row.Date.Format("2006-01-02"),
			strconv.FormatInt(row.BranchID, 10),
			strconv.FormatInt(row.CategoryID, 10),
			strconv.FormatFloat(row.Bookings, 'g', -1, 64),
		)
		for _, col := range res.Columns {
			rec = append(rec, formatCell(row.Values[col]))
		}
		records = append(records, rec)
	}

	if err := rpiio.WriteCSVAtomic(out, header, records); err != nil {
		return err
	}
	log.Info().Int("rows", len(records)).Int("columns", len(header)).Str("path", out).
		Msg("feature table written")
	return nil
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
