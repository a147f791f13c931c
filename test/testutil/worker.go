package testutil

import (
	"context"
	"database/sql"

	workerHandler "github.com/fhuszti/uploads-ms-go/internal/handler/worker"
	"github.com/fhuszti/uploads-ms-go/internal/optimiser"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/repository/mariadb"
	"github.com/fhuszti/uploads-ms-go/internal/task"
	uploadSvc "github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
	"github.com/hibiken/asynq"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
)

// StartWorker starts an asynq worker processing inspection and cleanup tasks.
// It returns a function to gracefully shut down the worker.
func StartWorker(db *sql.DB, strg port.Storage, keys port.KeyRegistry, metrics port.UploadMetrics, redisAddr string) func() {
	repo := mariadb.NewRecordRepository(db)
	inspectSvc := uploadSvc.NewRecordInspector(repo, strg, optimiser.NewOptimiser(optimiser.NewWebPEncoder()))
	cleanerSvc := uploadSvc.NewCleaner(repo, strg, keys, metrics)

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

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{Concurrency: 5})
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Errorf(context.Background(), "worker stopped: %v", err)
		}
	}()

	return func() {
		srv.Shutdown()
	}
}
