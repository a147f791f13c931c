package worker

import (
	"context"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/task"
)

// CleanupObjectsHandler retries compensating deletes. Keys committed in the
// meantime are left alone; remaining failures make asynq retry the task.
func CleanupObjectsHandler(ctx context.Context, p task.CleanupObjectsPayload, svc port.UploadCleaner) error {
	if len(p.Keys) == 0 {
		return nil
	}

	report := svc.RemoveUnreferenced(ctx, p.Keys)
	if report.Err != nil {
		logger.Warnf(ctx, "⚠️  Cleanup of %d objects incomplete, %d failed: %v", len(p.Keys), len(report.Failed), report.Err)
		return report.Err
	}

	logger.Infof(ctx, "✅  Cleanup done: %d deleted, %d skipped", len(report.Deleted), len(report.Skipped))
	return nil
}
