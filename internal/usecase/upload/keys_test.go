package upload

import (
	"strings"
	"testing"

	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

func TestOwnsKey(t *testing.T) {
	batch := uuid.NewUUID()
	valid := newObjectKey("alice", batch, uuid.NewUUID())

	tests := []struct {
		name  string
		owner string
		key   string
		want  bool
	}{
		{"issued key", "alice", valid, true},
		{"other owner", "bob", valid, false},
		{"thumbnail", "alice", ThumbnailKey(valid), false},
		{"missing object", "alice", BatchPrefix("alice", batch), false},
		{"traversal", "alice", OwnerPrefix("alice") + "../" + uuid.NewUUID().String(), false},
		{"nested", "alice", valid + "/" + uuid.NewUUID().String(), false},
		{"empty", "alice", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ownsKey(tc.owner, tc.key); got != tc.want {
				t.Errorf("ownsKey(%q, %q) = %v, want %v", tc.owner, tc.key, got, tc.want)
			}
		})
	}
}

func TestKeyInBatch(t *testing.T) {
	batch := uuid.NewUUID()
	key := newObjectKey("alice", batch, uuid.NewUUID())

	if !keyInBatch("alice", batch, key) {
		t.Error("expected key to be in its batch")
	}
	if keyInBatch("alice", uuid.NewUUID(), key) {
		t.Error("expected key to be outside another batch")
	}
}

func TestOwnerPrefix_IsStableAndOpaque(t *testing.T) {
	if OwnerPrefix("alice") != OwnerPrefix("alice") {
		t.Fatal("owner prefix must be deterministic")
	}
	if strings.Contains(OwnerPrefix("alice@example.com"), "alice") {
		t.Error("owner prefix must not leak the owner identity")
	}
	if !strings.HasPrefix(OwnerPrefix("alice"), KeyPrefix) {
		t.Errorf("owner prefix %q outside %q", OwnerPrefix("alice"), KeyPrefix)
	}
}
