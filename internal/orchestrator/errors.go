package orchestrator

import (
	"errors"
	"fmt"
)

// Kind classifies a failed submission step.
type Kind string

const (
	KindUnauthorized         Kind = "unauthorized"
	KindInvalidInput         Kind = "invalid_input"
	KindInsufficientCredits  Kind = "insufficient_credits"
	KindDuplicateObjectKey   Kind = "duplicate_object_key"
	KindAuthorizationFailure Kind = "authorization_failure"
	KindTransferFailure      Kind = "transfer_failure"
	KindCommitFailure        Kind = "commit_failure"
	KindCleanupFailure       Kind = "cleanup_failure"
)

// Retryable reports whether uploading again may succeed without user changes.
func (k Kind) Retryable() bool {
	switch k {
	case KindAuthorizationFailure, KindTransferFailure, KindCommitFailure:
		return true
	default:
		return false
	}
}

var (
	ErrAttemptsExhausted = errors.New("upload attempts exhausted, contact support")
	ErrNotRetryable      = errors.New("submission cannot be retried")
)

// Error is returned by every failed step of a submission.
type Error struct {
	Op     string
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or the empty kind when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether err is a retryable submission failure.
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}
