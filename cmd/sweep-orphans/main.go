package main

import (
	"context"
	"os"

	"github.com/fhuszti/uploads-ms-go/internal/cache"
	"github.com/fhuszti/uploads-ms-go/internal/config"
	"github.com/fhuszti/uploads-ms-go/internal/db"
	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/metrics"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/repository/mariadb"
	"github.com/fhuszti/uploads-ms-go/internal/storage"
	uploadSvc "github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.InitService("uploads-sweeper")

	database := initDb(ctx, cfg)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	strg := initStorage(ctx, cfg)

	var keys port.KeyRegistry = cache.NewNoop()
	if cfg.RedisAddr != "" {
		keys = cache.NewKeyRegistry(cfg.RedisAddr, cfg.RedisPassword)
	}

	rec, err := metrics.NewRecorder(prometheus.NewRegistry())
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to register metrics: %v", err)
		os.Exit(1)
	}

	repo := mariadb.NewRecordRepository(database.DB)
	cleaner := uploadSvc.NewCleaner(repo, strg, keys, rec)

	// objects younger than a capability plus its grace may still be committed
	sweeper := uploadSvc.NewOrphanSweeper(repo, strg, cleaner, cfg.UploadURLTTL+cfg.SweepGrace)

	report, err := sweeper.SweepOrphans(ctx)
	if err != nil {
		logger.Errorf(ctx, "❌  Orphan sweep failed (%d deleted, %d failed): %v", len(report.Deleted), len(report.Failed), err)
		os.Exit(1)
	}
	logger.Infof(ctx, "✅  Orphan sweep completed: %d objects deleted", len(report.Deleted))
}

func initDb(ctx context.Context, cfg *config.Settings) *db.Database {
	logger.Info(ctx, "initialising database...")

	database, err := db.New(cfg.MariaDBDSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}
	return database
}

func initStorage(ctx context.Context, cfg *config.Settings) port.Storage {
	var (
		strg port.Storage
		err  error
	)
	if cfg.StorageDriver == config.StorageDriverS3 {
		strg, err = storage.NewS3Storage(ctx, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.Bucket)
	} else {
		strg, err = storage.NewMinioStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.Bucket, cfg.MinioUseSSL)
	}
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize %s client: %v", cfg.StorageDriver, err)
		os.Exit(1)
	}
	return strg
}
