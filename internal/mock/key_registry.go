package mock

import (
	"context"
	"time"
)

// KeyRegistry is an in-memory port.KeyRegistry for tests.
type KeyRegistry struct {
	Owners map[string]string
	TTL    time.Duration

	RegisterErr error
	VerifyErr   error
	ForgetErr   error

	Forgotten []string

	// OnVerify runs at the start of Verify.
	OnVerify func()
}

func (k *KeyRegistry) Register(ctx context.Context, ownerID string, keys []string, ttl time.Duration) error {
	if k.RegisterErr != nil {
		return k.RegisterErr
	}
	if k.Owners == nil {
		k.Owners = map[string]string{}
	}
	for _, key := range keys {
		k.Owners[key] = ownerID
	}
	k.TTL = ttl
	return nil
}

func (k *KeyRegistry) Verify(ctx context.Context, ownerID string, keys []string) (bool, error) {
	if k.OnVerify != nil {
		k.OnVerify()
	}
	if k.VerifyErr != nil {
		return false, k.VerifyErr
	}
	for _, key := range keys {
		if k.Owners[key] != ownerID {
			return false, nil
		}
	}
	return true, nil
}

func (k *KeyRegistry) Forget(ctx context.Context, keys []string) error {
	if k.ForgetErr != nil {
		return k.ForgetErr
	}
	for _, key := range keys {
		delete(k.Owners, key)
	}
	k.Forgotten = append(k.Forgotten, keys...)
	return nil
}
