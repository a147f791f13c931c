package model

import (
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

type RecordStatus string

const (
	RecordStatusCreated            RecordStatus = "CREATED"
	RecordStatusFilesStored        RecordStatus = "FILES_STORED"
	RecordStatusReadyForProcessing RecordStatus = "READY_FOR_PROCESSING"
	RecordStatusDone               RecordStatus = "DONE"
	RecordStatusFailed             RecordStatus = "FAILED"
)

const (
	RoleTenant   = "Tenant"
	RoleLandlord = "Landlord"
)

// Record is one user submission: the paid-for parent of a batch of stored files.
type Record struct {
	ID                uuid.UUID    `json:"id"`
	UserID            string       `json:"user_id"`
	BatchID           uuid.UUID    `json:"batch_id"`
	Role              string       `json:"role"`
	RentalAddress     string       `json:"rental_address"`
	SecurityDeposit   int64        `json:"security_deposit"`
	Currency          string       `json:"currency"`
	OtherPartyEmail   string       `json:"other_party_email"`
	CreditsCharged    int          `json:"credits_charged"`
	TotalVideoSeconds int          `json:"total_video_seconds"`
	NumImages         int          `json:"num_images"`
	NumVideos         int          `json:"num_videos"`
	TotalImagesSizeMB float64      `json:"total_images_size_mb"`
	TotalVideosSizeMB float64      `json:"total_videos_size_mb"`
	Status            RecordStatus `json:"status"`
	FailureMessage    *string      `json:"failure_message,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`

	Files []File `json:"files,omitempty"`
}
