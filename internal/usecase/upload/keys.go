package upload

import (
	"fmt"
	"strings"

	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

// OwnerPrefix is the key namespace of everything uploaded by ownerID.
func OwnerPrefix(ownerID string) string {
	return KeyPrefix + uuid.ForOwner(ownerID).String() + "/"
}

// BatchPrefix is the key namespace of one authorization batch.
func BatchPrefix(ownerID string, batchID uuid.UUID) string {
	return fmt.Sprintf("%s%s/", OwnerPrefix(ownerID), batchID)
}

func newObjectKey(ownerID string, batchID, objectID uuid.UUID) string {
	return BatchPrefix(ownerID, batchID) + objectID.String()
}

// ThumbnailKey derives the key of the thumbnail rendered for an image.
func ThumbnailKey(key string) string {
	return key + ThumbnailSuffix
}

// ownsKey reports whether key has the exact shape of a key issued to ownerID.
func ownsKey(ownerID, key string) bool {
	rest, ok := strings.CutPrefix(key, OwnerPrefix(ownerID))
	if !ok {
		return false
	}
	batch, object, ok := strings.Cut(rest, "/")
	if !ok {
		return false
	}
	if _, err := uuid.Parse(batch); err != nil {
		return false
	}
	_, err := uuid.Parse(object)
	return err == nil
}

func keyInBatch(ownerID string, batchID uuid.UUID, key string) bool {
	return ownsKey(ownerID, key) && strings.HasPrefix(key, BatchPrefix(ownerID, batchID))
}
