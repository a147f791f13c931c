package task

import (
	"context"

	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

type NoopDispatcher struct{}

var _ port.TaskDispatcher = (*NoopDispatcher)(nil)

func NewNoopDispatcher() *NoopDispatcher { return &NoopDispatcher{} }

func (d *NoopDispatcher) EnqueueInspectRecord(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (d *NoopDispatcher) EnqueueCleanupObjects(ctx context.Context, keys []string) error {
	return nil
}
