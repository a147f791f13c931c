package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

// errUnrecoverable marks inspection failures that retrying cannot fix.
var errUnrecoverable = errors.New("unrecoverable inspection failure")

type inspectorSrv struct {
	repo port.RecordRepository
	strg port.Storage
	img  port.ImageInspector
}

func NewRecordInspector(repo port.RecordRepository, strg port.Storage, img port.ImageInspector) port.RecordInspector {
	return &inspectorSrv{repo: repo, strg: strg, img: img}
}

// InspectRecord reads the dimensions of every image of a committed record,
// stores a thumbnail next to it and hands the record over to downstream processing.
func (s *inspectorSrv) InspectRecord(ctx context.Context, id uuid.UUID) error {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if record.Status != model.RecordStatusFilesStored {
		logger.Infof(ctx, "record #%s has status %q, skipping inspection", id, record.Status)
		return nil
	}

	for _, f := range record.Files {
		if f.Type != model.FileTypeImage || f.ThumbnailKey != nil {
			continue
		}
		if err := s.inspectImage(ctx, f); err != nil {
			if !errors.Is(err, errUnrecoverable) {
				return err
			}
			reason := err.Error()
			if markErr := s.repo.UpdateStatus(ctx, id, model.RecordStatusFailed, &reason); markErr != nil {
				return fmt.Errorf("mark record #%s as failed: %w", id, markErr)
			}
			logger.Errorf(ctx, "❌ inspection of record #%s failed: %v", id, err)
			return nil
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, model.RecordStatusReadyForProcessing, nil); err != nil {
		return fmt.Errorf("failed updating record #%s: %w", id, err)
	}
	logger.Infof(ctx, "✅ record #%s ready for processing", id)
	return nil
}

func (s *inspectorSrv) inspectImage(ctx context.Context, f model.File) error {
	reader, err := s.strg.GetFile(ctx, f.StorageKey)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return fmt.Errorf("%w: object %q is missing", errUnrecoverable, f.StorageKey)
		}
		return fmt.Errorf("read object %q: %w", f.StorageKey, err)
	}
	defer func(reader io.ReadCloser) {
		_ = reader.Close()
	}(reader)

	res, err := s.img.Inspect(reader, ThumbnailWidth)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			logger.Warnf(ctx, "⚠️ no decoder for image %q, skipping thumbnail", f.StorageKey)
			return nil
		}
		return fmt.Errorf("%w: decode image %q: %v", errUnrecoverable, f.StorageKey, err)
	}

	thumbKey := ThumbnailKey(f.StorageKey)
	if err := s.strg.SaveFile(
		ctx,
		thumbKey,
		bytes.NewReader(res.Thumbnail),
		int64(len(res.Thumbnail)),
		map[string]string{
			"Content-Type": "image/webp",
		},
	); err != nil {
		return fmt.Errorf("failed to save thumbnail %q: %w", thumbKey, err)
	}

	if err := s.repo.UpdateFileInspection(ctx, f.ID, res.Width, res.Height, thumbKey); err != nil {
		return fmt.Errorf("failed updating file #%s: %w", f.ID, err)
	}
	return nil
}
