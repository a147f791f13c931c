package port

import (
	"context"

	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

// TaskDispatcher enqueues asynchronous tasks related to committed uploads.
type TaskDispatcher interface {
	EnqueueInspectRecord(ctx context.Context, id uuid.UUID) error
	EnqueueCleanupObjects(ctx context.Context, keys []string) error
}
