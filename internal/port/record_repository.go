package port

import (
	"context"

	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

// RecordRepository defines persistence operations for records, their files and
// the caller's credit balance.
type RecordRepository interface {
	// CommitUpload atomically creates the record, charges its credits and creates
	// its files. Nothing persists if any step fails.
	CommitUpload(ctx context.Context, record *model.Record, files []model.File) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Record, error)
	ListByUser(ctx context.Context, userID string) ([]model.Record, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.RecordStatus, failureMessage *string) error
	UpdateFileInspection(ctx context.Context, fileID uuid.UUID, width, height int, thumbnailKey string) error
	// ReferencedKeys returns the subset of keys already linked to a file row.
	ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error)
}
