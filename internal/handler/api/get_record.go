package api

import (
	"net/http"

	"github.com/fhuszti/uploads-ms-go/internal/api_context"
	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/renderer"
)

func GetRecordHandler(rdr renderer.HTTPRenderer, svc port.RecordGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, ok := callerID(w, r)
		if !ok {
			return
		}
		id, ok := api_context.IDFromContext(ctx)
		if !ok {
			WriteError(ctx, w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		raw, etag, err := rdr.RenderGetRecord(ctx, svc, owner, id)
		if err != nil {
			writeServiceError(ctx, w, "Could not get record details", err)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "private, no-cache")
		if match := r.Header.Get("If-None-Match"); match == etag {
			w.WriteHeader(http.StatusNotModified)
			logger.Infof(ctx, "✅  Record #%s not modified", id)
			return
		}

		RespondRawJSON(ctx, w, http.StatusOK, raw)
		logger.Infof(ctx, "✅  Successfully returned details for record #%s", id)
	}
}

func ListRecordsHandler(svc port.RecordGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, ok := callerID(w, r)
		if !ok {
			return
		}

		records, err := svc.ListRecords(ctx, owner)
		if err != nil {
			writeServiceError(ctx, w, "Could not list records", err)
			return
		}

		RespondJSON(ctx, w, http.StatusOK, records)
		logger.Infof(ctx, "✅  Returned %d records", len(records))
	}
}
