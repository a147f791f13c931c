package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/task"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

// InspectRecordHandler handles an inspect-record task.
// It converts the incoming task payload to a record ID and delegates to the
// inspector. A malformed ID is not retried.
func InspectRecordHandler(ctx context.Context, p task.InspectRecordPayload, svc port.RecordInspector) error {
	id, err := uuid.Parse(p.RecordID)
	if err != nil {
		logger.Errorf(ctx, "❌  Invalid record ID %q: %v", p.RecordID, err)
		return fmt.Errorf("invalid record ID %q: %v: %w", p.RecordID, err, asynq.SkipRetry)
	}

	if err := svc.InspectRecord(ctx, id); err != nil {
		logger.Errorf(ctx, "❌  Failed to inspect record #%s: %v", id, err)
		return err
	}

	logger.Infof(ctx, "✅  Successfully inspected record #%s", id)
	return nil
}
