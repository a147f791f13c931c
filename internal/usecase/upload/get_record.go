package upload

import (
	"context"

	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

type recordGetterSrv struct {
	repo port.RecordRepository
}

func NewRecordGetter(repo port.RecordRepository) port.RecordGetter {
	return &recordGetterSrv{repo}
}

// GetRecord returns a record with its files. Records of other users are reported as missing.
func (s *recordGetterSrv) GetRecord(ctx context.Context, ownerID string, id uuid.UUID) (*model.Record, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.UserID != ownerID {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

func (s *recordGetterSrv) ListRecords(ctx context.Context, ownerID string) ([]model.Record, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	records, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}
