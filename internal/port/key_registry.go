package port

import (
	"context"
	"time"
)

// KeyRegistry remembers which storage keys were issued to which caller.
type KeyRegistry interface {
	Register(ctx context.Context, ownerID string, keys []string, ttl time.Duration) error
	// Verify reports whether every key was issued to ownerID and is still remembered.
	Verify(ctx context.Context, ownerID string, keys []string) (bool, error)
	Forget(ctx context.Context, keys []string) error
}
