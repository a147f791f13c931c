package port

import (
	"context"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

type UUIDGen func() uuid.UUID

// UploadAuthorizer issues one presigned write capability per requested file.
type UploadAuthorizer interface {
	Authorize(ctx context.Context, in AuthorizeInput) (AuthorizeOutput, error)
}
type FileDescriptor struct {
	Name string
	Type string
}
type AuthorizeInput struct {
	OwnerID string
	Files   []FileDescriptor
}
type Capability struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}
type AuthorizeOutput struct {
	Capabilities []Capability `json:"capabilities"`
	BatchID      uuid.UUID    `json:"batchId"`
}

// UploadCommitter turns stored objects into a paid-for record.
type UploadCommitter interface {
	Commit(ctx context.Context, in CommitInput) (CommitOutput, error)
}
type UploadedFile struct {
	FileName        string
	FileExtension   string
	FileSize        int64
	StorageKey      string
	StorageLocation string
	Type            model.FileType
}
type CommitInput struct {
	OwnerID                 string
	BatchID                 uuid.UUID
	Role                    string
	Address                 string
	SecurityDepositAmount   int64
	SecurityDepositCurrency string
	OtherEmail              string
	TotalCredits            int
	TotalVideoSeconds       int
	UploadedFiles           []UploadedFile
}
type CommitOutput struct {
	RecordID       uuid.UUID `json:"recordId"`
	CreditsCharged int       `json:"creditsCharged"`
}

// UploadCleaner removes storage objects.
type UploadCleaner interface {
	// Cleanup serves the public endpoint: keys must belong to the caller.
	Cleanup(ctx context.Context, in CleanupInput) (CleanupReport, error)
	// RemoveUnreferenced removes the keys no file row points to.
	RemoveUnreferenced(ctx context.Context, keys []string) CleanupReport
	// RemoveObjects attempts every key and never short-circuits.
	RemoveObjects(ctx context.Context, keys []string) CleanupReport
}
type CleanupInput struct {
	OwnerID string
	Keys    []string
}
type CleanupReport struct {
	Deleted []string `json:"deleted"`
	Skipped []string `json:"skipped"`
	Failed  []string `json:"failed"`
	Err     error    `json:"-"`
}

// RecordGetter reads a caller's records.
type RecordGetter interface {
	GetRecord(ctx context.Context, ownerID string, id uuid.UUID) (*model.Record, error)
	ListRecords(ctx context.Context, ownerID string) ([]model.Record, error)
}

// RecordInspector inspects the files of a committed record.
type RecordInspector interface {
	InspectRecord(ctx context.Context, id uuid.UUID) error
}

// OrphanSweeper deletes stale objects no record references.
type OrphanSweeper interface {
	SweepOrphans(ctx context.Context) (CleanupReport, error)
}
