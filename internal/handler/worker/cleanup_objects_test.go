package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/fhuszti/uploads-ms-go/internal/mock"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/task"
)

func TestCleanupObjectsHandler(t *testing.T) {
	keys := []string{"uploads/o/b/1", "uploads/o/b/2"}

	t.Run("empty payload", func(t *testing.T) {
		svc := &mock.UploadCleaner{}
		if err := CleanupObjectsHandler(context.Background(), task.CleanupObjectsPayload{}, svc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.Called {
			t.Error("service should not be called without keys")
		}
	})

	t.Run("all removed", func(t *testing.T) {
		svc := &mock.UploadCleaner{Out: port.CleanupReport{Deleted: keys}}
		if err := CleanupObjectsHandler(context.Background(), task.CleanupObjectsPayload{Keys: keys}, svc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(svc.Keys) != 2 {
			t.Errorf("service got keys %v; want %v", svc.Keys, keys)
		}
	})

	t.Run("failures are retried", func(t *testing.T) {
		removeErr := errors.New("s3 unavailable")
		svc := &mock.UploadCleaner{Out: port.CleanupReport{Deleted: keys[:1], Failed: keys[1:], Err: removeErr}}
		err := CleanupObjectsHandler(context.Background(), task.CleanupObjectsPayload{Keys: keys}, svc)
		if !errors.Is(err, removeErr) {
			t.Fatalf("got error %v; want %v", err, removeErr)
		}
	})
}
