package mock

import (
	"context"

	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

// TaskDispatcher records enqueued tasks.
type TaskDispatcher struct {
	InspectErr error
	CleanupErr error

	Inspected   []uuid.UUID
	CleanupKeys []string
}

func (d *TaskDispatcher) EnqueueInspectRecord(ctx context.Context, id uuid.UUID) error {
	d.Inspected = append(d.Inspected, id)
	return d.InspectErr
}

func (d *TaskDispatcher) EnqueueCleanupObjects(ctx context.Context, keys []string) error {
	d.CleanupKeys = append(d.CleanupKeys, keys...)
	return d.CleanupErr
}
