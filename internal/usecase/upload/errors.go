package upload

import "errors"

var (
	ErrObjectNotFound      = errors.New("storage: object not found")
	ErrBucketNotFound      = errors.New("storage: bucket not found")
	ErrStorageAccessDenied = errors.New("storage: access denied")
	ErrInternal            = errors.New("storage: internal error")

	ErrUnauthorized        = errors.New("caller is not authenticated")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrDuplicateObjectKey  = errors.New("object key already committed")
	ErrRecordNotFound      = errors.New("record not found")
)
