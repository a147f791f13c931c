package storage

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"

	"github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
)

func mapMinioErr(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return upload.ErrObjectNotFound
	case "NoSuchBucket":
		return upload.ErrBucketNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return upload.ErrStorageAccessDenied
	default:
		// catch everything else
		return fmt.Errorf("%w: %v", upload.ErrInternal, err)
	}
}

func mapS3Err(err error) error {
	if err == nil {
		return nil
	}
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	var noBucket *types.NoSuchBucket
	switch {
	case errors.As(err, &noKey), errors.As(err, &notFound):
		return upload.ErrObjectNotFound
	case errors.As(err, &noBucket):
		return upload.ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return upload.ErrObjectNotFound
		case "NoSuchBucket":
			return upload.ErrBucketNotFound
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "Forbidden":
			return upload.ErrStorageAccessDenied
		}
	}
	return fmt.Errorf("%w: %v", upload.ErrInternal, err)
}

func isMissing(err error) bool {
	return errors.Is(err, upload.ErrBucketNotFound) || errors.Is(err, upload.ErrObjectNotFound)
}
