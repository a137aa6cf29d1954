// Package worker implements the buffered worker pool that decouples stat
// ingestion from ClickHouse writes: batch inserts on size or interval,
// Redis side effects, and graceful shutdown with a final flush.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ffpredict/predictor-api/internal/models"
)

var (
	recordsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ffpredict_records_ingested_total",
		Help: "Total number of weekly stat records accepted for ingestion",
	})

	recordsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ffpredict_records_processed_total",
		Help: "Total number of weekly stat records written to ClickHouse",
	})

	recordsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ffpredict_records_failed_total",
		Help: "Total number of weekly stat records that failed processing",
	})

	recordsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ffpredict_records_load_shed_total",
		Help: "Total number of records dropped because the queue was full",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ffpredict_worker_queue_depth",
		Help: "Current depth of the ingest worker queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ffpredict_batch_insert_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})
)

// PoolConfig configures the ingest worker pool.
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Redis         *redis.Client
	Logger        *zap.Logger
}

// Pool manages the ingest workers.
type Pool struct {
	config   PoolConfig
	jobQueue chan *models.WeeklyRecord
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	p := &Pool{
		config:   cfg,
		jobQueue: make(chan *models.WeeklyRecord, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
	// Enqueue consults p.ctx, so it must be live even before Start.
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Ingest pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop shuts the pool down. Intake is cut first, then the queue is closed
// and every worker drains what is left before its final flush.
func (p *Pool) Stop() {
	p.logger.Info("Stopping ingest pool...")
	p.cancel()
	close(p.jobQueue)
	p.wg.Wait()
	p.logger.Info("Ingest pool stopped")
}

// Enqueue adds a record to the queue. Returns false immediately when the
// queue is full or the pool is shutting down; callers report the record as
// rejected rather than blocking the request.
func (p *Pool) Enqueue(rec *models.WeeklyRecord) bool {
	// Protect against sending on closed channel during shutdown
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue record (pool stopped)", "error", r)
		}
	}()

	select {
	case <-p.ctx.Done():
		recordsLoadShed.Inc()
		return false
	default:
	}

	select {
	case p.jobQueue <- rec:
		recordsIngested.Inc()
		return true
	default:
		recordsLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size.
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]*models.WeeklyRecord, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("Batch processing failed",
				"worker", id, "batchSize", len(batch), "error", err)
			recordsFailed.Add(float64(len(batch)))
		} else {
			recordsProcessed.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	// Shutdown is driven by the queue closing, not by ctx: queued records
	// are always drained before the worker exits.
	for {
		select {
		case rec, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

func (p *Pool) processBatch(batch []*models.WeeklyRecord) error {
	ctx := context.Background()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO ff_stats.weekly_stats (
			player_id, season, week, recent_team, opponent_team,
			carries, targets, fantasy_points
		)
	`)
	if err != nil {
		return fmt.Errorf("preparing batch: %w", err)
	}

	for _, rec := range batch {
		if err := chBatch.Append(
			rec.PlayerID,
			int32(rec.Season),
			int32(rec.Week),
			rec.RecentTeam,
			rec.OpponentTeam,
			rec.Carries,
			rec.Targets,
			rec.FantasyPoints,
		); err != nil {
			p.logger.Warnw("Failed to append record to batch",
				"error", err, "player", rec.PlayerID)
			continue
		}
	}

	if err := chBatch.Send(); err != nil {
		return fmt.Errorf("sending batch: %w", err)
	}

	// Side effects after the data is durable: track current teams and drop
	// any cached prediction the new rows would change.
	if p.config.Redis != nil {
		p.processBatchSideEffects(ctx, batch)
	}
	return nil
}

func (p *Pool) processBatchSideEffects(ctx context.Context, batch []*models.WeeklyRecord) {
	pipe := p.config.Redis.Pipeline()
	for _, rec := range batch {
		pipe.HSet(ctx, "player_teams", fmt.Sprintf("%d", rec.PlayerID), rec.RecentTeam)
		pipe.Del(ctx, fmt.Sprintf("pred:%d:%d:%d", rec.PlayerID, rec.Season, rec.Week))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		p.logger.Errorw("Redis pipeline failed", "error", err)
	}
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}
