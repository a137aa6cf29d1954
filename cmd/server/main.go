package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ffpredict/predictor-api/internal/bundle"
	"github.com/ffpredict/predictor-api/internal/config"
	"github.com/ffpredict/predictor-api/internal/handlers"
	"github.com/ffpredict/predictor-api/internal/logic"
	"github.com/ffpredict/predictor-api/internal/store"
	"github.com/ffpredict/predictor-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bundle first: a process that cannot load a sound artifact must not
	// come up at all.
	b, err := bundle.Load(cfg.BundlePath)
	if err != nil {
		var corrupt *bundle.CorruptArtifactError
		if errors.As(err, &corrupt) {
			sugar.Fatalw("Model bundle failed validation, refusing to serve",
				"path", corrupt.Path, "reason", corrupt.Reason)
		}
		sugar.Fatalw("Failed to load model bundle", "error", err)
	}
	sugar.Infow("Model bundle loaded",
		"id", b.ID, "created_at", b.CreatedAt, "cutoff_season", b.CutoffSeason,
		"teams_with_priors", len(b.TeamPriors),
	)

	pg, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("Failed to connect to Postgres", "error", err)
	}
	defer pg.Close()

	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		sugar.Fatalw("Invalid ClickHouse URL", "error", err)
	}
	ch, err := clickhouse.Open(chOpts)
	if err != nil {
		sugar.Fatalw("Failed to connect to ClickHouse", "error", err)
	}
	defer ch.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		sugar.Fatalw("Invalid Redis URL", "error", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		ClickHouse:    ch,
		Redis:         rdb,
		Logger:        logger,
	})
	pool.Start(ctx)

	records := store.NewRecordStore(ch)
	directory := store.NewDirectory(pg)
	cache := store.NewPredictionCache(rdb, cfg.PredictionCacheTTL)
	prediction := logic.NewPredictionService(b, records, cache, logger)

	h := handlers.New(handlers.Config{
		WorkerPool: pool,
		Postgres:   pg,
		ClickHouse: ch,
		Redis:      rdb,
		Logger:     logger,
		Prediction: prediction,
		Directory:  directory,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Routes(cfg.AllowedOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infow("Server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Server shutdown failed", "error", err)
	}
	pool.Stop()
	sugar.Info("Shutdown complete")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
