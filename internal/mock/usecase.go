package mock

import (
	"context"

	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

// UploadAuthorizer implements port.UploadAuthorizer for tests.
type UploadAuthorizer struct {
	Out    port.AuthorizeOutput
	Err    error
	Called bool
	In     port.AuthorizeInput
}

func (m *UploadAuthorizer) Authorize(ctx context.Context, in port.AuthorizeInput) (port.AuthorizeOutput, error) {
	m.Called = true
	m.In = in
	return m.Out, m.Err
}

// UploadCommitter implements port.UploadCommitter for tests.
type UploadCommitter struct {
	Out    port.CommitOutput
	Err    error
	Called bool
	In     port.CommitInput
}

func (m *UploadCommitter) Commit(ctx context.Context, in port.CommitInput) (port.CommitOutput, error) {
	m.Called = true
	m.In = in
	return m.Out, m.Err
}

// UploadCleaner implements port.UploadCleaner for tests.
type UploadCleaner struct {
	Out    port.CleanupReport
	Err    error
	Called bool
	In     port.CleanupInput
	Keys   []string
}

func (m *UploadCleaner) Cleanup(ctx context.Context, in port.CleanupInput) (port.CleanupReport, error) {
	m.Called = true
	m.In = in
	return m.Out, m.Err
}

func (m *UploadCleaner) RemoveUnreferenced(ctx context.Context, keys []string) port.CleanupReport {
	m.Called = true
	m.Keys = keys
	return m.Out
}

func (m *UploadCleaner) RemoveObjects(ctx context.Context, keys []string) port.CleanupReport {
	m.Called = true
	m.Keys = keys
	return m.Out
}

// RecordGetter implements port.RecordGetter for tests.
type RecordGetter struct {
	RecordOut  *model.Record
	RecordsOut []model.Record
	Err        error
	Called     bool
	ID         uuid.UUID
}

func (m *RecordGetter) GetRecord(ctx context.Context, ownerID string, id uuid.UUID) (*model.Record, error) {
	m.Called = true
	m.ID = id
	return m.RecordOut, m.Err
}

func (m *RecordGetter) ListRecords(ctx context.Context, ownerID string) ([]model.Record, error) {
	m.Called = true
	return m.RecordsOut, m.Err
}

// RecordInspector implements port.RecordInspector for tests.
type RecordInspector struct {
	Err    error
	Called bool
	ID     uuid.UUID
}

func (m *RecordInspector) InspectRecord(ctx context.Context, id uuid.UUID) error {
	m.Called = true
	m.ID = id
	return m.Err
}
