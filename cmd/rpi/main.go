package main

import (
	"context"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Samer-Is/RPI/internal/calendar"
	"github.com/Samer-Is/RPI/internal/config"
	"github.com/Samer-Is/RPI/internal/domain"
	"github.com/Samer-Is/RPI/internal/features"
	"github.com/Samer-Is/RPI/internal/persistence"
	"github.com/Samer-Is/RPI/internal/persistence/postgres"
)

const (
	appName = "rpi"
	version = "v1.4.0"
)

var (
	cfgPath  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:     appName,
		Short:   "Rental price intelligence: demand forecasting and price optimization",
		Version: version,
		Long: `RPI forecasts daily vehicle-rental demand per branch and category and
recommends revenue-optimal prices via a two-stage demand/elasticity model.

Typical flow:
  rpi ingest     # mirror the latest contract snapshot into postgres
  rpi train      # build features and fit both model stages
  rpi validate   # check whether the data supports elasticity modeling
  rpi optimize   # sweep a price grid for one branch/category/date
  rpi serve      # expose predictions over the read-only HTTP API`,
	}
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")
	cobra.OnInitialize(func() {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			log.Warn().Str("log_level", logLevel).Msg("unknown log level, using info")
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
	})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgPath)
}

// loadContracts reads the transaction history: the live PostgreSQL mirror
// when a DSN is configured, otherwise the pre-exported CSV snapshot.
func loadContracts(ctx context.Context, cfg *config.Config) ([]domain.Transaction, error) {
	if cfg.Data.PostgresDSN != "" {
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Data.PostgresDSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		repo := postgres.NewContractsRepo(db, 30*time.Second)
		return repo.ListBetween(ctx, persistence.TimeRange{To: time.Now()})
	}
	return persistence.LoadContractsCSV(cfg.Data.TransactionsCSV)
}

// buildFeatures assembles the full feature table from the configured inputs.
func buildFeatures(ctx context.Context, cfg *config.Config) (*features.Result, error) {
	cal, err := calendar.LoadCSV(cfg.Data.CalendarCSV)
	if err != nil {
		return nil, err
	}
	txs, err := loadContracts(ctx, cfg)
	if err != nil {
		return nil, err
	}

	builder := features.NewBuilder(features.BuilderConfig{
		MaxDailyRate:   cfg.Features.MaxDailyRate,
		MinHistoryDays: cfg.Features.MinHistoryDays,
		DensifyGaps:    cfg.Features.DensifyGaps,
	}, cal)
	return builder.Build(txs)
}
