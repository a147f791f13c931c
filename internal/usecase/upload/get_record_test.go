package upload

import (
	"context"
	"errors"
	"testing"

	"github.com/fhuszti/uploads-ms-go/internal/mock"
	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

func TestGetRecord(t *testing.T) {
	rec := &model.Record{ID: uuid.NewUUID(), UserID: testOwner}

	tests := []struct {
		name    string
		owner   string
		repo    *mock.RecordRepository
		wantErr error
	}{
		{"own record", testOwner, &mock.RecordRepository{RecordOut: rec}, nil},
		{"other owner", "intruder", &mock.RecordRepository{RecordOut: rec}, ErrRecordNotFound},
		{"missing", testOwner, &mock.RecordRepository{GetErr: ErrRecordNotFound}, ErrRecordNotFound},
		{"anonymous", "", &mock.RecordRepository{RecordOut: rec}, ErrUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewRecordGetter(tc.repo).GetRecord(context.Background(), tc.owner, rec.ID)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr == nil && got != rec {
				t.Errorf("got %v, want %v", got, rec)
			}
		})
	}
}

func TestListRecords_EmptyIsNotNil(t *testing.T) {
	got, err := NewRecordGetter(&mock.RecordRepository{}).ListRecords(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty slice", got)
	}
}
