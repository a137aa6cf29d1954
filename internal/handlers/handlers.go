package handlers

import (
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ffpredict/predictor-api/internal/logic"
	"github.com/ffpredict/predictor-api/internal/models"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// IngestQueue defines the interface for the stat ingestion worker pool
type IngestQueue interface {
	Enqueue(rec *models.WeeklyRecord) bool
	QueueDepth() int
}

type Config struct {
	WorkerPool IngestQueue
	Postgres   *pgxpool.Pool
	ClickHouse driver.Conn
	Redis      *redis.Client
	Logger     *zap.Logger
	// Services
	Prediction logic.PredictionService
	Directory  logic.PlayerDirectory
}

type Handler struct {
	pool       IngestQueue
	pg         *pgxpool.Pool
	ch         driver.Conn
	redis      *redis.Client
	logger     *zap.SugaredLogger
	validator  *validator.Validate
	prediction logic.PredictionService
	directory  logic.PlayerDirectory
}

func New(cfg Config) *Handler {
	return &Handler{
		pool:       cfg.WorkerPool,
		pg:         cfg.Postgres,
		ch:         cfg.ClickHouse,
		redis:      cfg.Redis,
		logger:     cfg.Logger.Sugar(),
		validator:  validator.New(),
		prediction: cfg.Prediction,
		directory:  cfg.Directory,
	}
}
