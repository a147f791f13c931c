package upload

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/port"
)

func TestAuthorize_PreservesOrder(t *testing.T) {
	f := newFixture()
	types := []string{"image/png", "video/mp4", "image/jpeg", "video/quicktime"}
	descs := make([]port.FileDescriptor, len(types))
	for i, typ := range types {
		descs[i] = port.FileDescriptor{Name: "f", Type: typ}
	}

	out, err := f.authorizer().Authorize(context.Background(), port.AuthorizeInput{OwnerID: testOwner, Files: descs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Capabilities) != len(types) {
		t.Fatalf("got %d capabilities, want %d", len(out.Capabilities), len(types))
	}
	seen := map[string]bool{}
	for i, c := range out.Capabilities {
		if f.strg.PresignedTypes[i] != types[i] {
			t.Errorf("capability %d presigned for %q, want %q", i, f.strg.PresignedTypes[i], types[i])
		}
		if f.strg.PresignedKeys[i] != c.Key {
			t.Errorf("capability %d key mismatch", i)
		}
		if !strings.HasPrefix(c.Key, BatchPrefix(testOwner, out.BatchID)) {
			t.Errorf("key %q outside batch prefix", c.Key)
		}
		if seen[c.Key] {
			t.Errorf("duplicate key %q", c.Key)
		}
		seen[c.Key] = true
		if f.keys.Owners[c.Key] != testOwner {
			t.Errorf("key %q not registered to owner", c.Key)
		}
	}
	if f.metrics.Issued != len(types) {
		t.Errorf("issued metric = %d", f.metrics.Issued)
	}
}

func TestAuthorize_ExpiryAndRegistryTTL(t *testing.T) {
	f := newFixture()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := NewAuthorizer(f.strg, f.keys, f.metrics, 30*time.Minute, 10*time.Minute).(*authorizerSrv)
	svc.now = func() time.Time { return now }

	out, err := svc.Authorize(context.Background(), port.AuthorizeInput{
		OwnerID: testOwner,
		Files:   []port.FileDescriptor{{Name: "a.png", Type: "image/png"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Capabilities[0].ExpiresAt.Equal(now.Add(30 * time.Minute)) {
		t.Errorf("expiresAt = %v", out.Capabilities[0].ExpiresAt)
	}
	if f.strg.TTL != 30*time.Minute {
		t.Errorf("presign ttl = %v", f.strg.TTL)
	}
	if f.keys.TTL != 40*time.Minute {
		t.Errorf("registry ttl = %v, want url ttl plus grace", f.keys.TTL)
	}
}

func TestAuthorize_Rejections(t *testing.T) {
	tooMany := make([]port.FileDescriptor, MaxFilesPerBatch+1)
	for i := range tooMany {
		tooMany[i] = port.FileDescriptor{Type: "image/png"}
	}

	tests := []struct {
		name    string
		in      port.AuthorizeInput
		wantErr error
	}{
		{"anonymous", port.AuthorizeInput{Files: []port.FileDescriptor{{Type: "image/png"}}}, ErrUnauthorized},
		{"empty list", port.AuthorizeInput{OwnerID: testOwner}, ErrInvalidInput},
		{"missing type", port.AuthorizeInput{OwnerID: testOwner, Files: []port.FileDescriptor{{Name: "a"}}}, ErrInvalidInput},
		{"unsupported type", port.AuthorizeInput{OwnerID: testOwner, Files: []port.FileDescriptor{{Type: "application/pdf"}}}, ErrInvalidInput},
		{"long name", port.AuthorizeInput{OwnerID: testOwner, Files: []port.FileDescriptor{{Name: strings.Repeat("a", 256), Type: "image/png"}}}, ErrInvalidInput},
		{"too many", port.AuthorizeInput{OwnerID: testOwner, Files: tooMany}, ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.authorizer().Authorize(context.Background(), tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if len(f.strg.PresignedKeys) != 0 {
				t.Error("no capability should be issued")
			}
			if len(f.keys.Owners) != 0 {
				t.Error("no key should be registered")
			}
		})
	}
}

func TestAuthorize_PresignError(t *testing.T) {
	f := newFixture()
	f.strg.GenerateUploadLinkErr = errors.New("presign fail")

	_, err := f.authorizer().Authorize(context.Background(), port.AuthorizeInput{
		OwnerID: testOwner,
		Files:   []port.FileDescriptor{{Type: "image/png"}},
	})
	if err == nil || !strings.Contains(err.Error(), "presign fail") {
		t.Fatalf("expected presign error, got %v", err)
	}
	if len(f.keys.Owners) != 0 {
		t.Error("keys must not be registered when presigning fails")
	}
}

func TestAuthorize_RegistryError(t *testing.T) {
	f := newFixture()
	f.keys.RegisterErr = errors.New("redis down")

	_, err := f.authorizer().Authorize(context.Background(), port.AuthorizeInput{
		OwnerID: testOwner,
		Files:   []port.FileDescriptor{{Type: "video/mp4"}},
	})
	if err == nil || !strings.Contains(err.Error(), "redis down") {
		t.Fatalf("expected registry error, got %v", err)
	}
}
