package task

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeInspectRecord  = "record:inspect_files"
	TypeCleanupObjects = "storage:cleanup"
)

type InspectRecordPayload struct {
	RecordID string `json:"record_id"`
}

type CleanupObjectsPayload struct {
	Keys []string `json:"keys"`
}

// NewInspectRecordTask creates an Asynq task inspecting the files of a committed record.
func NewInspectRecordTask(recordID string) (*asynq.Task, error) {
	data, err := json.Marshal(InspectRecordPayload{RecordID: recordID})
	if err != nil {
		return nil, fmt.Errorf("could not marshal inspect-record payload: %w", err)
	}
	return asynq.NewTask(TypeInspectRecord, data, asynq.MaxRetry(5)), nil
}

// ParseInspectRecordPayload parses the task payload to InspectRecordPayload.
func ParseInspectRecordPayload(t *asynq.Task) (InspectRecordPayload, error) {
	var p InspectRecordPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return InspectRecordPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	return p, nil
}

// NewCleanupObjectsTask creates an Asynq task retrying the removal of storage objects.
func NewCleanupObjectsTask(keys []string) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupObjectsPayload{Keys: keys})
	if err != nil {
		return nil, fmt.Errorf("could not marshal cleanup-objects payload: %w", err)
	}
	return asynq.NewTask(TypeCleanupObjects, data, asynq.MaxRetry(10)), nil
}

// ParseCleanupObjectsPayload parses the task payload to CleanupObjectsPayload.
func ParseCleanupObjectsPayload(t *asynq.Task) (CleanupObjectsPayload, error) {
	var p CleanupObjectsPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return CleanupObjectsPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	return p, nil
}
