package upload

import "github.com/fhuszti/uploads-ms-go/internal/model"

const (
	MaxFilesPerBatch  = 50
	MaxFileNameLength = 255
	// column widths of files.file_extension and records.rental_address
	MaxFileExtensionLength = 32
	MaxAddressLength       = 512
	ThumbnailWidth         = 320
	ThumbnailSuffix        = "_thumb.webp"
	KeyPrefix              = "uploads/"
)

var AllowedMimeTypes = map[string]model.FileType{
	"image/png":        model.FileTypeImage,
	"image/jpeg":       model.FileTypeImage,
	"image/webp":       model.FileTypeImage,
	"image/heic":       model.FileTypeImage,
	"video/mp4":        model.FileTypeVideo,
	"video/quicktime":  model.FileTypeVideo,
	"video/webm":       model.FileTypeVideo,
	"video/x-matroska": model.FileTypeVideo,
}

func IsMimeTypeAllowed(mimeType string) bool {
	_, ok := AllowedMimeTypes[mimeType]
	return ok
}

// CreditCost is one credit per image plus one per second of video.
func CreditCost(numImages, totalVideoSeconds int) int {
	return numImages + totalVideoSeconds
}
