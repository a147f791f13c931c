package upload

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/port"
)

type cleanerSrv struct {
	repo    port.RecordRepository
	strg    port.Storage
	keys    port.KeyRegistry
	metrics port.UploadMetrics
}

func NewCleaner(repo port.RecordRepository, strg port.Storage, keys port.KeyRegistry, metrics port.UploadMetrics) port.UploadCleaner {
	return &cleanerSrv{repo: repo, strg: strg, keys: keys, metrics: metrics}
}

// Cleanup removes objects the caller uploaded but never committed.
func (s *cleanerSrv) Cleanup(ctx context.Context, in port.CleanupInput) (port.CleanupReport, error) {
	if in.OwnerID == "" {
		return port.CleanupReport{}, ErrUnauthorized
	}
	if len(in.Keys) == 0 {
		return port.CleanupReport{}, fmt.Errorf("%w: no keys given", ErrInvalidInput)
	}
	if len(in.Keys) > MaxFilesPerBatch {
		return port.CleanupReport{}, fmt.Errorf("%w: %d keys given (max: %d)", ErrInvalidInput, len(in.Keys), MaxFilesPerBatch)
	}
	for _, key := range in.Keys {
		if !ownsKey(in.OwnerID, key) {
			return port.CleanupReport{}, fmt.Errorf("%w: key %q is outside the caller's namespace", ErrInvalidInput, key)
		}
	}

	report := s.RemoveUnreferenced(ctx, in.Keys)
	if len(report.Deleted) > 0 {
		if err := s.keys.Forget(ctx, report.Deleted); err != nil {
			logger.Warnf(ctx, "⚠️ failed to forget %d cleaned up keys: %v", len(report.Deleted), err)
		}
	}
	return report, nil
}

// RemoveUnreferenced deletes the keys no file row points to. When references
// cannot be looked up nothing is deleted and every key is reported as failed.
func (s *cleanerSrv) RemoveUnreferenced(ctx context.Context, keys []string) port.CleanupReport {
	keys = dedupe(keys)
	refs, err := s.repo.ReferencedKeys(ctx, keys)
	if err != nil {
		logger.Errorf(ctx, "❌ failed to look up references of %d keys: %v", len(keys), err)
		s.metrics.ObjectsRemoved(0, len(keys))
		return port.CleanupReport{Failed: keys, Err: err}
	}

	var removable, skipped []string
	for _, key := range keys {
		if refs[key] {
			skipped = append(skipped, key)
			continue
		}
		removable = append(removable, key)
	}
	if len(skipped) > 0 {
		logger.Warnf(ctx, "⚠️ keeping %d objects referenced by existing records", len(skipped))
	}

	report := s.RemoveObjects(ctx, removable)
	report.Skipped = skipped
	return report
}

// RemoveObjects attempts every key independently. A missing object counts as deleted.
func (s *cleanerSrv) RemoveObjects(ctx context.Context, keys []string) port.CleanupReport {
	report := port.CleanupReport{Deleted: []string{}, Failed: []string{}}
	for _, key := range dedupe(keys) {
		err := s.strg.RemoveFile(ctx, key)
		if err == nil || errors.Is(err, ErrObjectNotFound) {
			report.Deleted = append(report.Deleted, key)
			continue
		}
		logger.Warnf(ctx, "⚠️ failed to remove object %q: %v", key, err)
		report.Failed = append(report.Failed, key)
		report.Err = multierr.Append(report.Err, fmt.Errorf("remove %q: %w", key, err))
	}
	s.metrics.ObjectsRemoved(len(report.Deleted), len(report.Failed))
	return report
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
