package renderer

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"

	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

// HTTPRenderer mediates between HTTP handlers and the record getter use case.
// It returns both the JSON representation of the result and an ETag derived from it.
type HTTPRenderer interface {
	// RenderGetRecord runs the getter and encodes its output. The ETag changes
	// whenever the record or its files change, e.g. once inspection completes.
	RenderGetRecord(ctx context.Context, getter port.RecordGetter, ownerID string, id uuid.UUID) ([]byte, string, error)
}

type httpRenderer struct{}

// compile-time check: *httpRenderer must satisfy HTTPRenderer
var _ HTTPRenderer = (*httpRenderer)(nil)

func NewHTTPRenderer() HTTPRenderer {
	return &httpRenderer{}
}

func (r *httpRenderer) RenderGetRecord(ctx context.Context, getter port.RecordGetter, ownerID string, id uuid.UUID) ([]byte, string, error) {
	out, err := getter.GetRecord(ctx, ownerID, id)
	if err != nil {
		return nil, "", err
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, "", fmt.Errorf("json marshal: %w", err)
	}

	return raw, ETag(raw), nil
}

// ETag returns the quoted CRC-32 of raw.
func ETag(raw []byte) string {
	return fmt.Sprintf("\"%08x\"", crc32.ChecksumIEEE(raw))
}
