package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fhuszti/uploads-ms-go/internal/api_context"
	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
	"github.com/fhuszti/uploads-ms-go/internal/validation"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	switch {
	case status >= http.StatusInternalServerError && err != nil:
		logger.Errorf(ctx, "❌  %s: %v", msg, err)
	case status >= http.StatusInternalServerError:
		logger.Error(ctx, "❌  "+msg)
	case err != nil:
		logger.Warnf(ctx, "⚠️  %s: %v", msg, err)
	default:
		logger.Warn(ctx, "⚠️  "+msg)
	}
	w.Header().Set("Cache-Control", "no-store, max-age=0, must-revalidate")
	RespondJSON(ctx, w, status, ErrorResponse{Error: msg})
}

func RespondJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf(ctx, "❌  Failed to encode JSON response: %v", err)
	}
}

func RespondRawJSON(ctx context.Context, w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(raw); err != nil {
		logger.Errorf(ctx, "❌  Failed to write JSON payload: %v", err)
	}
}

// statusFor maps use case errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, upload.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, upload.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, upload.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, upload.ErrDuplicateObjectKey):
		return http.StatusConflict
	case errors.Is(err, upload.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers with the status matching err. Client errors carry
// the use case message; server errors only carry fallback.
func writeServiceError(ctx context.Context, w http.ResponseWriter, fallback string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		WriteError(ctx, w, status, fallback, err)
		return
	}
	WriteError(ctx, w, status, err.Error(), nil)
}

// decodeAndValidate reads a JSON body into req and runs struct validation.
// It writes the error response itself and reports whether the handler may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	ctx := r.Context()
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request", err)
		return false
	}

	if errs := validation.ValidateStruct(req); errs != nil {
		errsJSON, err := validation.ErrorsToJson(errs)
		if err != nil {
			WriteError(ctx, w, http.StatusInternalServerError, "Validation error (could not encode details)", err)
			return false
		}
		RespondRawJSON(ctx, w, http.StatusBadRequest, []byte(errsJSON))
		logger.Warnf(ctx, "❌  Validation failed: %s", errsJSON)
		return false
	}
	return true
}

// callerID returns the authenticated caller or answers 401.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := api_context.AuthUserIDFromContext(r.Context())
	if !ok {
		WriteError(r.Context(), w, http.StatusUnauthorized, "missing caller identity", nil)
	}
	return id, ok
}
