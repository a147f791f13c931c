package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

type authorizerSrv struct {
	strg        port.Storage
	keys        port.KeyRegistry
	metrics     port.UploadMetrics
	urlTTL      time.Duration
	commitGrace time.Duration
	newID       port.UUIDGen
	now         func() time.Time
}

func NewAuthorizer(strg port.Storage, keys port.KeyRegistry, metrics port.UploadMetrics, urlTTL, commitGrace time.Duration) port.UploadAuthorizer {
	return &authorizerSrv{
		strg:        strg,
		keys:        keys,
		metrics:     metrics,
		urlTTL:      urlTTL,
		commitGrace: commitGrace,
		newID:       uuid.NewUUID,
		now:         time.Now,
	}
}

// Authorize issues one presigned PUT per descriptor, in input order. It never touches the database.
func (s *authorizerSrv) Authorize(ctx context.Context, in port.AuthorizeInput) (port.AuthorizeOutput, error) {
	if in.OwnerID == "" {
		return port.AuthorizeOutput{}, ErrUnauthorized
	}
	if err := validateDescriptors(in.Files); err != nil {
		return port.AuthorizeOutput{}, err
	}

	batchID := s.newID()
	expiresAt := s.now().UTC().Add(s.urlTTL)
	out := port.AuthorizeOutput{
		BatchID:      batchID,
		Capabilities: make([]port.Capability, 0, len(in.Files)),
	}
	keys := make([]string, 0, len(in.Files))

	for i, f := range in.Files {
		key := newObjectKey(in.OwnerID, batchID, s.newID())
		url, err := s.strg.GeneratePresignedUploadURL(ctx, key, f.Type, s.urlTTL)
		if err != nil {
			return port.AuthorizeOutput{}, fmt.Errorf("presign file #%d: %w", i, err)
		}
		out.Capabilities = append(out.Capabilities, port.Capability{URL: url, Key: key, ExpiresAt: expiresAt})
		keys = append(keys, key)
	}

	if err := s.keys.Register(ctx, in.OwnerID, keys, s.urlTTL+s.commitGrace); err != nil {
		return port.AuthorizeOutput{}, fmt.Errorf("register issued keys: %w", err)
	}

	s.metrics.CapabilitiesIssued(len(keys))
	logger.Infof(ctx, "🔑 issued %d upload capabilities for batch #%s", len(keys), batchID)

	return out, nil
}

func validateDescriptors(files []port.FileDescriptor) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: no files requested", ErrInvalidInput)
	}
	if len(files) > MaxFilesPerBatch {
		return fmt.Errorf("%w: %d files requested (max: %d)", ErrInvalidInput, len(files), MaxFilesPerBatch)
	}
	for i, f := range files {
		if f.Type == "" {
			return fmt.Errorf("%w: file #%d has no type", ErrInvalidInput, i)
		}
		if !IsMimeTypeAllowed(f.Type) {
			return fmt.Errorf("%w: unsupported mime-type %q for file #%d", ErrInvalidInput, f.Type, i)
		}
		if len(f.Name) > MaxFileNameLength {
			return fmt.Errorf("%w: name of file #%d is too long", ErrInvalidInput, i)
		}
	}
	return nil
}
