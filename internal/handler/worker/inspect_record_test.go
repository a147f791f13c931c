package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/fhuszti/uploads-ms-go/internal/mock"
	"github.com/fhuszti/uploads-ms-go/internal/task"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

func TestInspectRecordHandler_InvalidID(t *testing.T) {
	svc := &mock.RecordInspector{}
	err := InspectRecordHandler(context.Background(), task.InspectRecordPayload{RecordID: "invalid"}, svc)
	if err == nil {
		t.Fatal("expected error for invalid UUID")
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("expected the error to skip retries, got %v", err)
	}
	if svc.Called {
		t.Error("service should not be called on invalid id")
	}
}

func TestInspectRecordHandler_ServiceError(t *testing.T) {
	id := uuid.NewUUID()
	svcErr := errors.New("svc fail")
	svc := &mock.RecordInspector{Err: svcErr}

	err := InspectRecordHandler(context.Background(), task.InspectRecordPayload{RecordID: id.String()}, svc)
	if !errors.Is(err, svcErr) {
		t.Fatalf("got error %v; want %v", err, svcErr)
	}
	if svc.ID != id {
		t.Errorf("service got id %s; want %s", svc.ID, id)
	}
}

func TestInspectRecordHandler_Success(t *testing.T) {
	id := uuid.NewUUID()
	svc := &mock.RecordInspector{}

	if err := InspectRecordHandler(context.Background(), task.InspectRecordPayload{RecordID: id.String()}, svc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !svc.Called || svc.ID != id {
		t.Errorf("service called = %v with %s; want %s", svc.Called, svc.ID, id)
	}
}
