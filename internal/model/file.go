package model

import (
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

type FileType string

const (
	FileTypeImage FileType = "IMAGE"
	FileTypeVideo FileType = "VIDEO"
)

type FileUploadStatus string

const FileUploadStatusUploaded FileUploadStatus = "UPLOADED"

// File is one stored object linked to a Record.
type File struct {
	ID              uuid.UUID        `json:"id"`
	RecordID        uuid.UUID        `json:"record_id"`
	FileName        string           `json:"file_name"`
	FileExtension   string           `json:"file_extension"`
	FileSizeBytes   int64            `json:"file_size_bytes"`
	StorageKey      string           `json:"storage_key"`
	StorageLocation string           `json:"storage_location"`
	Type            FileType         `json:"type"`
	UploadStatus    FileUploadStatus `json:"upload_status"`
	Width           *int             `json:"width,omitempty"`
	Height          *int             `json:"height,omitempty"`
	ThumbnailKey    *string          `json:"thumbnail_key,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// BytesToMB converts a byte count to megabytes, rounded to two decimals.
func BytesToMB(b int64) float64 {
	mb := float64(b) / (1024 * 1024)
	return float64(int64(mb*100+0.5)) / 100
}
