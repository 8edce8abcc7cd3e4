package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Samer-Is/RPI/internal/competitor"
	rpihttp "github.com/Samer-Is/RPI/internal/interfaces/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only pricing API",
	Long: `Load the latest artifacts once and serve predictions, price sweeps,
the validation verdict and Prometheus metrics over HTTP. Artifacts are
immutable for the life of the process; retrain and restart to pick up a new
model version.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, report, err := loadEngine(cfg)
	if err != nil {
		return err
	}
	store, err := competitor.NewStore(cfg.Data.CompetitorJSON)
	if err != nil {
		return err
	}

	server, err := rpihttp.NewServer(cfg.Server, engine, store, report)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
