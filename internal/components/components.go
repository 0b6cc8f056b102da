package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"proxify/internal/api"
	"proxify/internal/api/handlers/http/system"
	"proxify/internal/config"
	"proxify/internal/geo"
	"proxify/internal/ingest"
	"proxify/internal/mq"
	"proxify/internal/query"
	"proxify/internal/redis"
	"proxify/internal/service"
	"proxify/internal/storage/postgres"
	"proxify/internal/store"
	"proxify/internal/workers"
	"proxify/pkg/logger"
)

type Components struct {
	logger     *slog.Logger
	HttpServer *api.Server
	Store      *store.Store
	Sweeper    *workers.Sweeper
	Notifier   *service.Notifier // nil when notifications are off
	Postgres   *postgres.Postgres
	Redis      *redis.Redis
	Publisher  *mq.Publisher
	ledger     *ingest.Ledger
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	c := &Components{logger: logger}

	if cfg.Postgres.Enabled {
		logger.Info("Initializing Postgres")
		pg, err := postgres.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Error("Failed to init postgres", slog.Any("error", err))
			return nil, fmt.Errorf("failed to init postgres: %w", err)
		}
		c.Postgres = pg
	}

	if cfg.Redis.Enabled {
		logger.Info("Initializing Redis")
		rdb, err := redis.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			c.ShutdownAll()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		c.Redis = rdb
	}

	var (
		publisher service.EventPublisher
		queue     service.NotificationQueue
		notifyQ   *redis.NotificationQueue
	)
	if len(cfg.Kafka.Brokers) > 0 {
		logger.Info("Initializing Kafka publisher",
			slog.Any("brokers", cfg.Kafka.Brokers),
			slog.String("topic", cfg.Kafka.Topic))
		c.Publisher = mq.NewPublisher(mq.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), logger)
		publisher = c.Publisher
	}
	if c.Redis != nil && !cfg.Notify.Disabled && cfg.Notify.URL != "" {
		notifyQ = redis.NewNotificationQueue(c.Redis.Client, redis.NotificationQueueKey)
		queue = notifyQ
		c.Notifier = service.NewNotifier(logger, cfg.Notify, notifyQ)
	}

	var reviews service.ReviewRepository = store.NewReviews()
	if c.Postgres != nil {
		reviews = c.Postgres.Reviews()
	}
	lifecycle := service.NewLifecycle(publisher, queue, logger, service.WithVoteCleanup(reviews))

	index := geo.NewIndex(geo.Options{
		CellKM:        cfg.Geo.GridCellKM,
		EarthRadiusKM: cfg.Geo.EarthRadiusKM,
	})

	storeOpts := []store.Option{store.WithObserver(lifecycle)}
	if c.Postgres != nil {
		storeOpts = append(storeOpts, store.WithRepository(c.Postgres.Alerts()))
	}
	c.Store = store.New(index, cfg.Geo.DefaultTTL, logger, storeOpts...)

	restored, err := c.Store.Restore(ctx)
	if err != nil {
		c.ShutdownAll()
		return nil, fmt.Errorf("failed to restore alerts: %w", err)
	}
	logger.Info("Alert store ready", slog.Int("restored", restored))

	verifier, err := ingest.NewVerifier(cfg.Webhook.Secret, cfg.Webhook.Tolerance)
	if err != nil {
		c.ShutdownAll()
		return nil, fmt.Errorf("failed to init webhook verifier: %w", err)
	}

	var records []ingest.RecordRepository
	if c.Redis != nil {
		records = append(records, redis.NewIngestionRecords(c.Redis, cfg.Geo.RetryWindow))
	}
	if c.Postgres != nil {
		records = append(records, c.Postgres.Ingestions())
	}

	c.ledger = ingest.NewLedger(cfg.Geo.RetryWindow, logger)
	pipeline := ingest.NewPipeline(verifier, c.Store, c.ledger, cfg.Geo.RetryWindow, logger,
		ingest.WithRecords(records...),
		ingest.WithAnnouncer(lifecycle),
		ingest.WithAttemptTimeout(cfg.Http.WriteTimeout),
	)

	engine := query.NewEngine(index, c.Store, logger)
	alertSvc := service.NewAlertService(c.Store, lifecycle, cfg.Geo.DefaultTTL, logger)

	reviewSvc := service.NewReviewService(c.Store, reviews, lifecycle, logger)

	svc := service.NewService(alertSvc, engine, pipeline, reviewSvc)

	var health []system.Option
	if notifyQ != nil {
		health = append(health, system.WithQueueDepth(notifyQ))
	}
	c.HttpServer = api.NewServer(ctx, cfg, logger, svc, c.Store, health...)
	c.Sweeper = workers.NewSweeper(c.Store, cfg.Geo.SweepInterval, logger)
	logger.Info("Initialized server")

	return c, nil
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return logger.SetupPrettySlog()
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("Component shutdown started")

	if c.ledger != nil {
		c.ledger.Stop()
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			c.logger.Error("Kafka writer close failed", slog.String("err", err.Error()))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("Redis close failed", slog.String("err", err.Error()))
		}
	}
	if c.Postgres != nil {
		c.Postgres.Pool.Close()
	}

	c.logger.Info("All components stopped",
		slog.Duration("latency", time.Since(start)))
}
