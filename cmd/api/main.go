package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/cache"
	"github.com/fhuszti/uploads-ms-go/internal/config"
	"github.com/fhuszti/uploads-ms-go/internal/db"
	"github.com/fhuszti/uploads-ms-go/internal/handler/api"
	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/metrics"
	cMiddleware "github.com/fhuszti/uploads-ms-go/internal/middleware"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/renderer"
	"github.com/fhuszti/uploads-ms-go/internal/repository/mariadb"
	"github.com/fhuszti/uploads-ms-go/internal/storage"
	"github.com/fhuszti/uploads-ms-go/internal/task"
	uploadSvc "github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.InitService("uploads-api")

	database := initDb(ctx, cfg)

	strg := initStorage(ctx, cfg)
	if err := strg.InitBucket(ctx); err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize bucket %q: %v", cfg.Bucket, err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to register metrics: %v", err)
		os.Exit(1)
	}

	var keys port.KeyRegistry
	var dispatcher port.TaskDispatcher
	var closeDispatcher func() error
	if cfg.RedisAddr != "" {
		registry := cache.NewKeyRegistry(cfg.RedisAddr, cfg.RedisPassword)
		if err := registry.Ping(ctx); err != nil {
			logger.Errorf(ctx, "❌  Failed to reach Redis at %s: %v", cfg.RedisAddr, err)
			os.Exit(1)
		}
		d := task.NewDispatcher(cfg.RedisAddr, cfg.RedisPassword)
		keys, dispatcher, closeDispatcher = registry, d, d.Close
		logger.Info(ctx, "✅  Redis key registry and task queue enabled")
	} else {
		keys = cache.NewNoop()
		dispatcher = task.NewNoopDispatcher()
		logger.Warn(ctx, "⚠️  Redis not configured, issued keys are not tracked and inspections are skipped")
	}

	r := initRouter(ctx, reg)

	repo := mariadb.NewRecordRepository(database.DB)
	cleanerSvc := uploadSvc.NewCleaner(repo, strg, keys, rec)
	authorizerSvc := uploadSvc.NewAuthorizer(strg, keys, rec, cfg.UploadURLTTL, cfg.CommitGrace)
	committerSvc := uploadSvc.NewCommitter(repo, strg, keys, dispatcher, cleanerSvc, rec)
	getterSvc := uploadSvc.NewRecordGetter(repo)

	r.Group(func(r chi.Router) {
		r.Use(cMiddleware.WithAuth(cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience))

		r.Post("/upload/authorize", api.AuthorizeUploadHandler(authorizerSvc))
		r.Post("/upload/commit", api.CommitUploadHandler(committerSvc))
		r.Post("/upload/cleanup", api.CleanupUploadHandler(cleanerSvc))

		r.Get("/records", api.ListRecordsHandler(getterSvc))
		r.With(cMiddleware.WithRecordID()).
			Get("/records/{id}", api.GetRecordHandler(renderer.NewHTTPRenderer(), getterSvc))
	})

	listenRouter(ctx, r, cfg, database, closeDispatcher)
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

func initRouter(ctx context.Context, reg *prometheus.Registry) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	// scraped without a bearer token
	r.Handle("/metrics", metrics.Handler(reg))

	return r
}

func initStorage(ctx context.Context, cfg *config.Settings) port.Storage {
	switch cfg.StorageDriver {
	case config.StorageDriverS3:
		strg, err := storage.NewS3Storage(ctx, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.Bucket)
		if err != nil {
			logger.Errorf(ctx, "❌  Failed to initialize S3 client: %v", err)
			os.Exit(1)
		}
		return strg
	default:
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
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings, database *db.Database, closeDispatcher func() error) {
	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.ServerPort), Handler: r}

	// start serving
	go func() {
		logger.Infof(ctx, "🚀 API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Listen error: %v", err)
			os.Exit(1)
		}
	}()

	// block until we get SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "❌  Server shutdown failed: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "✅  Server gracefully stopped")

	if closeDispatcher != nil {
		if err := closeDispatcher(); err != nil {
			logger.Warnf(ctx, "Task queue close error: %v", err)
		}
	}

	if err := database.Close(); err != nil {
		logger.Errorf(ctx, "DB close error: %v", err)
		os.Exit(1)
	}
}
