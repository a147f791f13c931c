package api_context

import (
	"context"

	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

type ctxKey string

const (
	IDKey         ctxKey = "id"
	AuthUserIDKey ctxKey = "authUserID"
	AuthRolesKey  ctxKey = "authRoles"
)

func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(IDKey).(uuid.UUID)
	return id, ok
}

// AuthUserIDFromContext returns the caller identity (the token subject).
func AuthUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(AuthUserIDKey).(string)
	return id, ok && id != ""
}

func AuthRolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(AuthRolesKey).([]string)
	return roles, ok
}

// WithAuthUserID returns a copy of ctx carrying the caller identity.
func WithAuthUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, AuthUserIDKey, userID)
}
