package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fhuszti/uploads-ms-go/internal/api_context"
	"github.com/fhuszti/uploads-ms-go/internal/handler/api"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

// WithRecordID parses the {id} route parameter into a record UUID.
func WithRecordID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if id == "" {
				api.WriteError(r.Context(), w, http.StatusBadRequest, "ID is required", nil)
				return
			}
			parsedID, err := uuid.Parse(id)
			if err != nil {
				api.WriteError(r.Context(), w, http.StatusBadRequest, fmt.Sprintf("ID %q is not a valid UUID", id), nil)
				return
			}

			ctx := context.WithValue(r.Context(), api_context.IDKey, parsedID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
