package cache

import (
	"context"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/port"
)

// NoopKeyRegistry trusts every key. Ownership then rests on the key namespace check alone.
type NoopKeyRegistry struct{}

// compile-time check: *NoopKeyRegistry must satisfy port.KeyRegistry
var _ port.KeyRegistry = (*NoopKeyRegistry)(nil)

func NewNoop() *NoopKeyRegistry {
	return &NoopKeyRegistry{}
}

func (n *NoopKeyRegistry) Register(ctx context.Context, ownerID string, keys []string, ttl time.Duration) error {
	return nil
}

func (n *NoopKeyRegistry) Verify(ctx context.Context, ownerID string, keys []string) (bool, error) {
	return true, nil
}

func (n *NoopKeyRegistry) Forget(ctx context.Context, keys []string) error { return nil }
