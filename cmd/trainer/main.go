package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ffpredict/predictor-api/internal/bundle"
	"github.com/ffpredict/predictor-api/internal/config"
	"github.com/ffpredict/predictor-api/internal/logic"
	"github.com/ffpredict/predictor-api/internal/store"
)

// trainer is the one-shot batch job: pull history from ClickHouse, fit the
// bundle, write it atomically, and record the run in Postgres.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if cfg.Env != "production" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx := context.Background()

	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		sugar.Fatalw("Invalid ClickHouse URL", "error", err)
	}
	ch, err := clickhouse.Open(chOpts)
	if err != nil {
		sugar.Fatalw("Failed to connect to ClickHouse", "error", err)
	}
	defer ch.Close()

	pg, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("Failed to connect to Postgres", "error", err)
	}
	defer pg.Close()

	trainer := logic.NewTrainer(store.NewRecordStore(ch), logger)

	sugar.Infow("Training run starting",
		"from_season", cfg.TrainFromSeason, "cutoff_season", cfg.TrainCutoffSeason)

	result, err := trainer.Train(ctx, cfg.TrainFromSeason, cfg.TrainCutoffSeason)
	if err != nil {
		sugar.Fatalw("Training failed", "error", err)
	}

	if err := bundle.Save(result.Bundle, cfg.BundlePath); err != nil {
		sugar.Fatalw("Failed to save bundle", "error", err, "path", cfg.BundlePath)
	}

	if err := store.NewDirectory(pg).RegisterBundle(ctx, result.Bundle, cfg.BundlePath, result.TrainRows); err != nil {
		// The artifact itself is already durable; registry failure should
		// not fail the run.
		sugar.Warnw("Failed to register bundle", "error", err)
	}

	sugar.Infow("Training run complete",
		"bundle_id", result.Bundle.ID,
		"path", cfg.BundlePath,
		"train_rows", result.TrainRows,
		"total_rows", result.TotalRows,
		"teams_with_priors", len(result.Bundle.TeamPriors),
	)
}
