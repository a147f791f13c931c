package api

import (
	"net/http"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/port"
)

type AuthorizeUploadRequest struct {
	Files []FileDescriptorRequest `json:"files" validate:"required,min=1,max=50,dive"`
}

type FileDescriptorRequest struct {
	Name string `json:"name" validate:"max=255"`
	Type string `json:"type" validate:"required,mimetype"`
}

func AuthorizeUploadHandler(svc port.UploadAuthorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, ok := callerID(w, r)
		if !ok {
			return
		}

		var req AuthorizeUploadRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		in := port.AuthorizeInput{OwnerID: owner, Files: make([]port.FileDescriptor, len(req.Files))}
		for i, f := range req.Files {
			in.Files[i] = port.FileDescriptor{Name: f.Name, Type: f.Type}
		}

		out, err := svc.Authorize(ctx, in)
		if err != nil {
			writeServiceError(ctx, w, "Could not authorize upload", err)
			return
		}

		RespondJSON(ctx, w, http.StatusOK, out)
		logger.Infof(ctx, "✅  Authorized %d uploads in batch #%s", len(out.Capabilities), out.BatchID)
	}
}
