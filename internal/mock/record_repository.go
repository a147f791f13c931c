package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

// RecordRepository implements port.RecordRepository for tests.
type RecordRepository struct {
	mu sync.Mutex

	// stored values
	RecordOut  *model.Record
	RecordsOut []model.Record
	Referenced map[string]bool

	// captured inputs
	Committed      *model.Record
	CommittedFiles []model.File
	Statuses       []model.RecordStatus
	FailureMessage *string
	Inspections    map[uuid.UUID]string

	// errors
	CommitErr     error
	GetErr        error
	ListErr       error
	UpdateErr     error
	InspectionErr error
	ReferencesErr error

	// call flags
	CommitCalled     bool
	ReferencesCalled bool
}

func (r *RecordRepository) CommitUpload(ctx context.Context, record *model.Record, files []model.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CommitCalled = true
	if r.CommitErr != nil {
		return r.CommitErr
	}
	record.Status = model.RecordStatusFilesStored
	r.Committed = record
	r.CommittedFiles = files
	if r.Referenced == nil {
		r.Referenced = map[string]bool{}
	}
	for _, f := range files {
		r.Referenced[f.StorageKey] = true
	}
	return nil
}

func (r *RecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	return r.RecordOut, nil
}

func (r *RecordRepository) ListByUser(ctx context.Context, userID string) ([]model.Record, error) {
	return r.RecordsOut, r.ListErr
}

func (r *RecordRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RecordStatus, failureMessage *string) error {
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	r.Statuses = append(r.Statuses, status)
	r.FailureMessage = failureMessage
	return nil
}

func (r *RecordRepository) UpdateFileInspection(ctx context.Context, fileID uuid.UUID, width, height int, thumbnailKey string) error {
	if r.InspectionErr != nil {
		return r.InspectionErr
	}
	if r.Inspections == nil {
		r.Inspections = map[uuid.UUID]string{}
	}
	r.Inspections[fileID] = thumbnailKey
	return nil
}

func (r *RecordRepository) ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ReferencesCalled = true
	if r.ReferencesErr != nil {
		return nil, r.ReferencesErr
	}
	out := map[string]bool{}
	for _, k := range keys {
		if r.Referenced[k] {
			out[k] = true
		}
	}
	return out, nil
}
