package api

import (
	"net/http"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/port"
)

type CleanupUploadRequest struct {
	Keys []string `json:"keys" validate:"required,min=1,max=50,dive,required"`
}

// CleanupUploadHandler answers 200 with the per-key outcome once the request
// is valid, even when some deletions failed.
func CleanupUploadHandler(svc port.UploadCleaner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, ok := callerID(w, r)
		if !ok {
			return
		}

		var req CleanupUploadRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		report, err := svc.Cleanup(ctx, port.CleanupInput{OwnerID: owner, Keys: req.Keys})
		if err != nil {
			writeServiceError(ctx, w, "Could not clean up upload", err)
			return
		}

		RespondJSON(ctx, w, http.StatusOK, report)
		logger.Infof(ctx, "✅  Cleanup done: %d deleted, %d skipped, %d failed", len(report.Deleted), len(report.Skipped), len(report.Failed))
	}
}
