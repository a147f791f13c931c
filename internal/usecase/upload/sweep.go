package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/port"
)

const sweepLookupBatch = 500

type sweeperSrv struct {
	repo      port.RecordRepository
	strg      port.Storage
	cleaner   port.UploadCleaner
	olderThan time.Duration
	now       func() time.Time
}

// NewOrphanSweeper builds a sweeper removing unreferenced objects last written
// more than olderThan ago.
func NewOrphanSweeper(repo port.RecordRepository, strg port.Storage, cleaner port.UploadCleaner, olderThan time.Duration) port.OrphanSweeper {
	return &sweeperSrv{repo: repo, strg: strg, cleaner: cleaner, olderThan: olderThan, now: time.Now}
}

func (s *sweeperSrv) SweepOrphans(ctx context.Context) (port.CleanupReport, error) {
	objects, err := s.strg.ListFiles(ctx, KeyPrefix)
	if err != nil {
		return port.CleanupReport{}, fmt.Errorf("list uploaded objects: %w", err)
	}

	cutoff := s.now().Add(-s.olderThan)
	var stale []string
	for _, o := range objects {
		if o.LastModified.Before(cutoff) {
			stale = append(stale, o.Key)
		}
	}
	if len(stale) == 0 {
		logger.Info(ctx, "🧹 no stale objects found")
		return port.CleanupReport{}, nil
	}

	var orphans []string
	for start := 0; start < len(stale); start += sweepLookupBatch {
		end := min(start+sweepLookupBatch, len(stale))
		chunk := stale[start:end]

		lookup := make([]string, 0, len(chunk))
		for _, key := range chunk {
			lookup = append(lookup, sourceKey(key))
		}
		refs, err := s.repo.ReferencedKeys(ctx, lookup)
		if err != nil {
			return port.CleanupReport{}, fmt.Errorf("lookup referenced keys: %w", err)
		}
		for _, key := range chunk {
			if !refs[sourceKey(key)] {
				orphans = append(orphans, key)
			}
		}
	}

	logger.Infof(ctx, "🧹 %d of %d stale objects are orphaned", len(orphans), len(stale))
	if len(orphans) == 0 {
		return port.CleanupReport{}, nil
	}
	report := s.cleaner.RemoveObjects(ctx, orphans)
	return report, report.Err
}

// sourceKey maps a thumbnail to the image it was rendered from.
func sourceKey(key string) string {
	return strings.TrimSuffix(key, ThumbnailSuffix)
}
