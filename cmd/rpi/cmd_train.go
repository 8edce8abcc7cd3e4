package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Samer-Is/RPI/internal/train"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit both model stages and persist versioned artifacts",
	Long: `Build the feature table, split it chronologically, fit the Stage 1
baseline and Stage 2 elasticity ensembles, and write versioned artifacts to
the configured artifact directory. The latest-pointer files are only updated
after both stages trained successfully.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	res, err := buildFeatures(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info().Int("rows", len(res.Rows)).Int("columns", len(res.Columns)).Msg("feature table built")

	run, err := train.NewTrainer(cfg.Training).TrainAll(res)
	if err != nil {
		return err
	}

	for _, artifact := range []*train.Artifact{run.Baseline, run.Elasticity} {
		path, err := train.SaveArtifact(cfg.Data.ArtifactDir, artifact)
		if err != nil {
			return err
		}
		log.Info().
			Str("stage", string(artifact.Stage)).
			Str("path", path).
			Float64("test_r2", artifact.Report.Test.R2).
			Float64("test_rmse", artifact.Report.Test.RMSE).
			Float64("overfit_gap", artifact.Report.OverfitGap).
			Msg("artifact saved")
	}

	log.Info().Str("run_id", run.RunID).Msg("training run complete")
	return nil
}
