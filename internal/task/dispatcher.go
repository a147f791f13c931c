package task

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

type Dispatcher struct {
	client *asynq.Client
}

// compile-time check
var _ port.TaskDispatcher = (*Dispatcher)(nil)

func NewDispatcher(addr, password string) *Dispatcher {
	c := asynq.NewClient(asynq.RedisClientOpt{Addr: addr, Password: password})
	return &Dispatcher{client: c}
}

func (d *Dispatcher) Close() error {
	return d.client.Close()
}

func (d *Dispatcher) EnqueueInspectRecord(ctx context.Context, id uuid.UUID) error {
	t, err := NewInspectRecordTask(id.String())
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, t); err != nil {
		return err
	}
	return nil
}

func (d *Dispatcher) EnqueueCleanupObjects(ctx context.Context, keys []string) error {
	t, err := NewCleanupObjectsTask(keys)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, t); err != nil {
		return err
	}
	return nil
}
