package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/cache"
	"github.com/fhuszti/uploads-ms-go/internal/config"
	"github.com/fhuszti/uploads-ms-go/internal/db"
	workerHandler "github.com/fhuszti/uploads-ms-go/internal/handler/worker"
	"github.com/fhuszti/uploads-ms-go/internal/metrics"
	"github.com/fhuszti/uploads-ms-go/internal/optimiser"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/repository/mariadb"
	"github.com/fhuszti/uploads-ms-go/internal/storage"
	"github.com/fhuszti/uploads-ms-go/internal/task"
	uploadSvc "github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}
	if cfg.RedisAddr == "" {
		logger.Error(ctx, "⚠️  REDIS_ADDR must be set to run the worker")
		os.Exit(1)
	}

	logger.InitService("uploads-worker")

	database := initDb(cfg)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	strg := initStorage(cfg)
	if err := strg.InitBucket(ctx); err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize bucket %q: %v", cfg.Bucket, err)
		os.Exit(1)
	}

	rec, err := metrics.NewRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to register metrics: %v", err)
		os.Exit(1)
	}

	repo := mariadb.NewRecordRepository(database.DB)
	keys := cache.NewKeyRegistry(cfg.RedisAddr, cfg.RedisPassword)
	img := optimiser.NewOptimiser(optimiser.NewWebPEncoder())
	inspectSvc := uploadSvc.NewRecordInspector(repo, strg, img)
	cleanerSvc := uploadSvc.NewCleaner(repo, strg, keys, rec)

	mux := asynq.NewServeMux()
	mux.HandleFunc(task.TypeInspectRecord, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseInspectRecordPayload(t)
		if err != nil {
			return err
		}
		return workerHandler.InspectRecordHandler(ctx, p, inspectSvc)
	})
	mux.HandleFunc(task.TypeCleanupObjects, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseCleanupObjectsPayload(t)
		if err != nil {
			return err
		}
		return workerHandler.CleanupObjectsHandler(ctx, p, cleanerSvc)
	})

	runWorker(ctx, mux, cfg)
}

func initDb(cfg *config.Settings) *db.Database {
	ctx := context.Background()
	logger.Info(ctx, "initialising database...")

	database, err := db.New(cfg.MariaDBDSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}
	return database
}

func initStorage(cfg *config.Settings) port.Storage {
	ctx := context.Background()
	if cfg.StorageDriver == config.StorageDriverS3 {
		strg, err := storage.NewS3Storage(ctx, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.Bucket)
		if err != nil {
			logger.Errorf(ctx, "❌  Failed to initialize S3 client: %v", err)
			os.Exit(1)
		}
		return strg
	}

	strg, err := storage.NewMinioStorage(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.Bucket,
		cfg.MinioUseSSL,
	)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize MinIO client: %v", err)
		os.Exit(1)
	}

	return strg
}

func runWorker(ctx context.Context, mux *asynq.ServeMux, cfg *config.Settings) {
	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, asynq.Config{
		Concurrency: 10,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			logger.Warnf(ctx, "task %s failed: %v", t.Type(), err)
		}),
	})

	// Run server in background
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Run(mux); err != nil {
			logger.Errorf(context.Background(), "❌  Worker failed: %v", err)
			os.Exit(1)
		}
	}()
	logger.Info(ctx, "🚀 Worker started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// Give Asynq up to 30 sec to finish tasks
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go srv.Shutdown() // stop accepting new tasks, finish in-flight
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn(ctx, "⚠️  Worker shutdown timed out")
	}

	logger.Info(ctx, "✅  Worker gracefully stopped")
}
