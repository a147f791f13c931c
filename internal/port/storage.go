package port

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a stored file.
type FileInfo struct {
	SizeBytes    int64
	ContentType  string
	LastModified time.Time
}

// ObjectInfo is one entry of a prefix listing.
type ObjectInfo struct {
	Key          string
	SizeBytes    int64
	LastModified time.Time
}

// Storage defines file storage operations against the uploads bucket.
type Storage interface {
	InitBucket(ctx context.Context) error
	// GeneratePresignedUploadURL returns a PUT URL bound to fileKey and contentType.
	GeneratePresignedUploadURL(ctx context.Context, fileKey, contentType string, expiry time.Duration) (string, error)
	// ObjectLocation is the canonical, unsigned location of fileKey.
	ObjectLocation(fileKey string) string
	StatFile(ctx context.Context, fileKey string) (FileInfo, error)
	RemoveFile(ctx context.Context, fileKey string) error
	GetFile(ctx context.Context, fileKey string) (io.ReadCloser, error)
	SaveFile(ctx context.Context, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error
	ListFiles(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
