package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Samer-Is/RPI/internal/persistence"
	"github.com/Samer-Is/RPI/internal/persistence/postgres"
)

var ingestCSV string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a contract snapshot into the PostgreSQL mirror",
	Long: `Read a contract snapshot CSV and append it to the configured
PostgreSQL mirror. Only contracts starting after the newest stored contract
are written, so re-running on an overlapping export is safe.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestCSV, "csv", "", "snapshot path (default: data.transactions_csv from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Data.PostgresDSN == "" {
		return fmt.Errorf("ingest: data.postgres_dsn is not configured")
	}
	path := ingestCSV
	if path == "" {
		path = cfg.Data.TransactionsCSV
	}

	contracts, err := persistence.LoadContractsCSV(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Data.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := postgres.NewContractsRepo(db, 30*time.Second)

	latest, err := repo.LatestStart(ctx)
	if err != nil {
		return err
	}
	fresh := persistence.StartedAfter(contracts, latest)
	if len(fresh) == 0 {
		log.Info().Time("latest", latest).Str("path", path).Msg("mirror already up to date")
		return nil
	}

	if err := repo.InsertBatch(ctx, fresh); err != nil {
		return err
	}
	log.Info().
		Int("inserted", len(fresh)).
		Int("skipped", len(contracts)-len(fresh)).
		Time("previous_latest", latest).
		Str("path", path).
		Msg("contract snapshot ingested")
	return nil
}
