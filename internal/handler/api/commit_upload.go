package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

type CommitUploadRequest struct {
	BatchID                 uuid.UUID             `json:"batchId" validate:"required,uuid4"`
	Role                    string                `json:"role" validate:"required,oneof=Tenant Landlord"`
	Address                 string                `json:"address" validate:"required,max=512"`
	SecurityDepositAmount   string                `json:"securityDepositAmount" validate:"required,numeric"`
	SecurityDepositCurrency string                `json:"securityDepositCurrency" validate:"required,iso4217"`
	OtherEmail              string                `json:"otherEmail" validate:"required,email"`
	TotalCredits            int                   `json:"totalCredits" validate:"gte=0"`
	TotalVideoSeconds       int                   `json:"totalVideoSeconds" validate:"gte=0"`
	UploadedFiles           []UploadedFileRequest `json:"uploadedFiles" validate:"required,min=1,max=50,dive"`
}

type UploadedFileRequest struct {
	FileName        string `json:"fileName" validate:"required,max=255"`
	FileExtension   string `json:"fileExtension" validate:"max=32"`
	FileSize        int64  `json:"fileSize" validate:"gte=0"`
	StorageKey      string `json:"storageKey" validate:"required"`
	StorageLocation string `json:"storageLocation"`
	Type            string `json:"type" validate:"required,oneof=IMAGE VIDEO"`
}

type CommitUploadResponse struct {
	Success bool `json:"success"`
	port.CommitOutput
}

func CommitUploadHandler(svc port.UploadCommitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, ok := callerID(w, r)
		if !ok {
			return
		}

		var req CommitUploadRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		deposit, err := strconv.ParseInt(strings.TrimSpace(req.SecurityDepositAmount), 10, 64)
		if err != nil {
			RespondJSON(ctx, w, http.StatusBadRequest, map[string]string{"securityDepositAmount": "numeric"})
			logger.Warnf(ctx, "❌  Validation failed: deposit %q is not a whole number", req.SecurityDepositAmount)
			return
		}

		in := port.CommitInput{
			OwnerID:                 owner,
			BatchID:                 req.BatchID,
			Role:                    req.Role,
			Address:                 req.Address,
			SecurityDepositAmount:   deposit,
			SecurityDepositCurrency: req.SecurityDepositCurrency,
			OtherEmail:              req.OtherEmail,
			TotalCredits:            req.TotalCredits,
			TotalVideoSeconds:       req.TotalVideoSeconds,
			UploadedFiles:           make([]port.UploadedFile, len(req.UploadedFiles)),
		}
		for i, f := range req.UploadedFiles {
			in.UploadedFiles[i] = port.UploadedFile{
				FileName:        f.FileName,
				FileExtension:   f.FileExtension,
				FileSize:        f.FileSize,
				StorageKey:      f.StorageKey,
				StorageLocation: f.StorageLocation,
				Type:            model.FileType(f.Type),
			}
		}

		out, err := svc.Commit(ctx, in)
		if err != nil {
			writeServiceError(ctx, w, "Could not commit upload", err)
			return
		}

		RespondJSON(ctx, w, http.StatusOK, CommitUploadResponse{Success: true, CommitOutput: out})
		logger.Infof(ctx, "✅  Committed record #%s for %d credits", out.RecordID, out.CreditsCharged)
	}
}
