package upload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/port"
)

func TestSweepOrphans(t *testing.T) {
	f := newFixture()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)
	fresh := now.Add(-time.Hour)

	f.strg.Objects = map[string]port.FileInfo{
		"uploads/o/b/committed":                   {LastModified: old},
		"uploads/o/b/committed" + ThumbnailSuffix: {LastModified: old},
		"uploads/o/b/orphan":                      {LastModified: old},
		"uploads/o/b/orphan" + ThumbnailSuffix:    {LastModified: old},
		"uploads/o/b/in-flight":                   {LastModified: fresh},
	}
	f.repo.Referenced = map[string]bool{"uploads/o/b/committed": true}

	svc := NewOrphanSweeper(f.repo, f.strg, f.cleaner(), 24*time.Hour).(*sweeperSrv)
	svc.now = func() time.Time { return now }

	report, err := svc.SweepOrphans(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Deleted) != 2 {
		t.Errorf("deleted = %v, want the orphan and its thumbnail", report.Deleted)
	}
	for _, k := range []string{"uploads/o/b/committed", "uploads/o/b/committed" + ThumbnailSuffix, "uploads/o/b/in-flight"} {
		if !f.strg.Has(k) {
			t.Errorf("%q must be kept", k)
		}
	}
}

func TestSweepOrphans_ListError(t *testing.T) {
	f := newFixture()
	f.strg.ListErr = errors.New("list fail")

	_, err := NewOrphanSweeper(f.repo, f.strg, f.cleaner(), time.Hour).SweepOrphans(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSweepOrphans_LookupError(t *testing.T) {
	f := newFixture()
	f.strg.Objects = map[string]port.FileInfo{"uploads/x": {LastModified: time.Now().Add(-48 * time.Hour)}}
	f.repo.ReferencesErr = errors.New("db down")

	_, err := NewOrphanSweeper(f.repo, f.strg, f.cleaner(), time.Hour).SweepOrphans(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !f.strg.Has("uploads/x") {
		t.Error("nothing may be deleted when references are unknown")
	}
}
