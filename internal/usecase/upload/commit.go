package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/metrics"
	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

var emailValidator = validator.New()

type committerSrv struct {
	repo    port.RecordRepository
	strg    port.Storage
	keys    port.KeyRegistry
	tasks   port.TaskDispatcher
	cleaner port.UploadCleaner
	metrics port.UploadMetrics
	newID   port.UUIDGen
}

func NewCommitter(
	repo port.RecordRepository,
	strg port.Storage,
	keys port.KeyRegistry,
	tasks port.TaskDispatcher,
	cleaner port.UploadCleaner,
	metrics port.UploadMetrics,
) port.UploadCommitter {
	return &committerSrv{
		repo:    repo,
		strg:    strg,
		keys:    keys,
		tasks:   tasks,
		cleaner: cleaner,
		metrics: metrics,
		newID:   uuid.NewUUID,
	}
}

// Commit verifies the uploaded objects, then charges the caller and records the
// submission in one transaction. Any failure after input validation removes
// the uploaded objects that no record references.
func (s *committerSrv) Commit(ctx context.Context, in port.CommitInput) (out port.CommitOutput, err error) {
	defer func() { s.metrics.CommitFinished(commitOutcome(err)) }()

	if in.OwnerID == "" {
		return port.CommitOutput{}, ErrUnauthorized
	}
	if err := validateCommit(in); err != nil {
		return port.CommitOutput{}, err
	}

	// Compensating delete
	keys := storageKeys(in.UploadedFiles)
	var finalErr error
	defer func() {
		if finalErr != nil {
			s.compensate(ctx, keys, finalErr)
		}
	}()

	refs, err := s.repo.ReferencedKeys(ctx, keys)
	if err != nil {
		finalErr = fmt.Errorf("lookup committed keys: %w", err)
		return port.CommitOutput{}, finalErr
	}
	if len(refs) > 0 {
		finalErr = fmt.Errorf("%w: %d of the storage keys belong to an existing record", ErrDuplicateObjectKey, len(refs))
		return port.CommitOutput{}, finalErr
	}
	issued, err := s.keys.Verify(ctx, in.OwnerID, keys)
	if err != nil {
		finalErr = fmt.Errorf("verify issued keys: %w", err)
		return port.CommitOutput{}, finalErr
	}
	if !issued {
		// nothing was uploaded through these keys
		return port.CommitOutput{}, fmt.Errorf("%w: storage keys were not issued to caller", ErrInvalidInput)
	}

	sizes := make(map[string]int64, len(keys))
	for _, f := range in.UploadedFiles {
		info, err := s.strg.StatFile(ctx, f.StorageKey)
		if err != nil {
			if errors.Is(err, ErrObjectNotFound) {
				finalErr = fmt.Errorf("%w: object %q not found in storage", ErrInvalidInput, f.StorageKey)
			} else {
				finalErr = fmt.Errorf("stats for object %q failed: %w", f.StorageKey, err)
			}
			return port.CommitOutput{}, finalErr
		}
		if stored := storedFileType(info.ContentType); stored != f.Type {
			finalErr = fmt.Errorf("%w: object %q holds %q, declared as %s", ErrInvalidInput, f.StorageKey, info.ContentType, f.Type)
			return port.CommitOutput{}, finalErr
		}
		sizes[f.StorageKey] = info.SizeBytes
	}

	record, files := s.buildRecord(in, sizes)
	if err := s.repo.CommitUpload(ctx, record, files); err != nil {
		finalErr = fmt.Errorf("commit record for batch #%s: %w", in.BatchID, err)
		return port.CommitOutput{}, finalErr
	}

	if err := s.keys.Forget(ctx, keys); err != nil {
		logger.Warnf(ctx, "⚠️ failed to forget issued keys of record #%s: %v", record.ID, err)
	}
	if err := s.tasks.EnqueueInspectRecord(ctx, record.ID); err != nil {
		logger.Errorf(ctx, "❌ failed to enqueue inspection of record #%s: %v", record.ID, err)
	}

	logger.Infof(ctx, "✅ record #%s committed: %d files, %d credits", record.ID, len(files), record.CreditsCharged)
	return port.CommitOutput{RecordID: record.ID, CreditsCharged: record.CreditsCharged}, nil
}

func (s *committerSrv) compensate(ctx context.Context, keys []string, cause error) {
	ctx = context.WithoutCancel(ctx)
	report := s.cleaner.RemoveUnreferenced(ctx, keys)
	logger.Warnf(ctx, "⚠️ commit failed (%v): removed %d uploaded objects, kept %d referenced, %d failed",
		cause, len(report.Deleted), len(report.Skipped), len(report.Failed))
	if len(report.Failed) == 0 {
		return
	}
	if err := s.tasks.EnqueueCleanupObjects(ctx, report.Failed); err != nil {
		logger.Errorf(ctx, "❌ failed to enqueue cleanup of %d objects: %v", len(report.Failed), err)
	}
}

func (s *committerSrv) buildRecord(in port.CommitInput, sizes map[string]int64) (*model.Record, []model.File) {
	record := &model.Record{
		ID:                s.newID(),
		UserID:            in.OwnerID,
		BatchID:           in.BatchID,
		Role:              in.Role,
		RentalAddress:     in.Address,
		SecurityDeposit:   in.SecurityDepositAmount,
		Currency:          strings.ToUpper(in.SecurityDepositCurrency),
		OtherPartyEmail:   in.OtherEmail,
		TotalVideoSeconds: in.TotalVideoSeconds,
		Status:            model.RecordStatusCreated,
	}

	var imageBytes, videoBytes int64
	files := make([]model.File, 0, len(in.UploadedFiles))
	for _, f := range in.UploadedFiles {
		size := sizes[f.StorageKey]
		switch f.Type {
		case model.FileTypeImage:
			record.NumImages++
			imageBytes += size
		case model.FileTypeVideo:
			record.NumVideos++
			videoBytes += size
		}
		files = append(files, model.File{
			ID:              s.newID(),
			RecordID:        record.ID,
			FileName:        f.FileName,
			FileExtension:   f.FileExtension,
			FileSizeBytes:   size,
			StorageKey:      f.StorageKey,
			StorageLocation: s.strg.ObjectLocation(f.StorageKey),
			Type:            f.Type,
			UploadStatus:    model.FileUploadStatusUploaded,
		})
	}
	record.TotalImagesSizeMB = model.BytesToMB(imageBytes)
	record.TotalVideosSizeMB = model.BytesToMB(videoBytes)
	record.CreditsCharged = CreditCost(record.NumImages, record.TotalVideoSeconds)

	return record, files
}

func validateCommit(in port.CommitInput) error {
	if in.Role != model.RoleTenant && in.Role != model.RoleLandlord {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	if strings.TrimSpace(in.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Address) > MaxAddressLength {
		return fmt.Errorf("%w: address longer than %d characters", ErrInvalidInput, MaxAddressLength)
	}
	if in.SecurityDepositAmount < 0 {
		return fmt.Errorf("%w: security deposit must not be negative", ErrInvalidInput)
	}
	if len(in.SecurityDepositCurrency) != 3 {
		return fmt.Errorf("%w: currency must be an ISO 4217 code", ErrInvalidInput)
	}
	if emailValidator.Var(in.OtherEmail, "required,email,max=320") != nil {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidInput, in.OtherEmail)
	}
	if in.BatchID == uuid.Nil {
		return fmt.Errorf("%w: batch id is required", ErrInvalidInput)
	}
	if len(in.UploadedFiles) == 0 {
		return fmt.Errorf("%w: no uploaded files", ErrInvalidInput)
	}
	if len(in.UploadedFiles) > MaxFilesPerBatch {
		return fmt.Errorf("%w: %d files (max: %d)", ErrInvalidInput, len(in.UploadedFiles), MaxFilesPerBatch)
	}
	if in.TotalVideoSeconds < 0 {
		return fmt.Errorf("%w: total video seconds must not be negative", ErrInvalidInput)
	}

	seen := make(map[string]bool, len(in.UploadedFiles))
	numImages, numVideos := 0, 0
	for i, f := range in.UploadedFiles {
		if f.FileName == "" || len(f.FileName) > MaxFileNameLength {
			return fmt.Errorf("%w: invalid name for file #%d", ErrInvalidInput, i)
		}
		if utf8.RuneCountInString(f.FileExtension) > MaxFileExtensionLength {
			return fmt.Errorf("%w: extension of file #%d longer than %d characters", ErrInvalidInput, i, MaxFileExtensionLength)
		}
		switch f.Type {
		case model.FileTypeImage:
			numImages++
		case model.FileTypeVideo:
			numVideos++
		default:
			return fmt.Errorf("%w: unknown type %q for file #%d", ErrInvalidInput, f.Type, i)
		}
		if seen[f.StorageKey] {
			return fmt.Errorf("%w: storage key %q listed twice", ErrInvalidInput, f.StorageKey)
		}
		seen[f.StorageKey] = true
		if !keyInBatch(in.OwnerID, in.BatchID, f.StorageKey) {
			return fmt.Errorf("%w: storage key %q is outside the caller's batch", ErrInvalidInput, f.StorageKey)
		}
	}

	if numVideos == 0 && in.TotalVideoSeconds > 0 {
		return fmt.Errorf("%w: video seconds declared without videos", ErrInvalidInput)
	}
	if in.TotalVideoSeconds < numVideos {
		return fmt.Errorf("%w: %d videos need at least %d seconds, got %d", ErrInvalidInput, numVideos, numVideos, in.TotalVideoSeconds)
	}
	if cost := CreditCost(numImages, in.TotalVideoSeconds); cost != in.TotalCredits {
		return fmt.Errorf("%w: declared cost %d does not match computed cost %d", ErrInvalidInput, in.TotalCredits, cost)
	}
	return nil
}

// storedFileType classifies the Content-Type the object was uploaded with.
func storedFileType(contentType string) model.FileType {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return AllowedMimeTypes[strings.ToLower(strings.TrimSpace(mediaType))]
}

func storageKeys(files []port.UploadedFile) []string {
	keys := make([]string, len(files))
	for i, f := range files {
		keys[i] = f.StorageKey
	}
	return keys
}

func commitOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnauthorized):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, ErrInsufficientCredits):
		return metrics.OutcomeInsufficientCredits
	case errors.Is(err, ErrDuplicateObjectKey):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
