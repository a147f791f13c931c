package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/port"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioStorage struct {
	client     minioClient
	bucketName string
}

// compile-time check: *MinioStorage must satisfy port.Storage
var _ port.Storage = (*MinioStorage)(nil)

func NewMinioStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStorage, error) {
	logger.Info(context.Background(), "initialising minio client...")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, mapMinioErr(err)
	}
	return &MinioStorage{client: client, bucketName: bucket}, nil
}

func (s *MinioStorage) InitBucket(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return mapMinioErr(err)
	}
	if !ok {
		logger.Warnf(ctx, "bucket %q does not exist, creating it...", s.bucketName)
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return mapMinioErr(err)
		}
	}
	return nil
}

// GeneratePresignedUploadURL signs the Content-Type header in, so the upload must declare it.
func (s *MinioStorage) GeneratePresignedUploadURL(ctx context.Context, fileKey, contentType string, expiry time.Duration) (string, error) {
	logger.Debugf(ctx, "generating a presigned upload link for file %q in bucket %q...", fileKey, s.bucketName)

	headers := http.Header{}
	headers.Set("Content-Type", contentType)
	presignedURL, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucketName, fileKey, expiry, url.Values{}, headers)
	if err != nil {
		return "", mapMinioErr(err)
	}

	return presignedURL.String(), nil
}

func (s *MinioStorage) ObjectLocation(fileKey string) string {
	endpoint := *s.client.EndpointURL()
	endpoint.Path = fmt.Sprintf("/%s/%s", s.bucketName, fileKey)
	return endpoint.String()
}

func (s *MinioStorage) StatFile(ctx context.Context, fileKey string) (port.FileInfo, error) {
	logger.Debugf(ctx, "getting stats on file %q in bucket %q...", fileKey, s.bucketName)

	info, err := s.client.StatObject(ctx, s.bucketName, fileKey, minio.StatObjectOptions{})
	if err != nil {
		return port.FileInfo{}, mapMinioErr(err)
	}
	return port.FileInfo{
		SizeBytes:    info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func (s *MinioStorage) RemoveFile(ctx context.Context, fileKey string) error {
	logger.Debugf(ctx, "removing file %q from bucket %q...", fileKey, s.bucketName)

	err := s.client.RemoveObject(ctx, s.bucketName, fileKey, minio.RemoveObjectOptions{})
	return mapMinioErr(err)
}

func (s *MinioStorage) GetFile(ctx context.Context, fileKey string) (io.ReadCloser, error) {
	logger.Debugf(ctx, "getting file %q from bucket %q...", fileKey, s.bucketName)

	obj, err := s.client.GetObject(ctx, s.bucketName, fileKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinioErr(err)
	}
	// GetObject is lazy, surface a missing key now
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapMinioErr(err)
	}
	return obj, nil
}

func (s *MinioStorage) SaveFile(ctx context.Context, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error {
	logger.Debugf(ctx, "saving file %q into bucket %q...", fileKey, s.bucketName)

	putOpts := minio.PutObjectOptions{}
	if ct := opts["Content-Type"]; ct != "" {
		putOpts.ContentType = ct
	}

	_, err := s.client.PutObject(ctx, s.bucketName, fileKey, reader, fileSize, putOpts)
	if err != nil {
		return mapMinioErr(err)
	}
	return nil
}

func (s *MinioStorage) ListFiles(ctx context.Context, prefix string) ([]port.ObjectInfo, error) {
	var out []port.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, mapMinioErr(obj.Err)
		}
		out = append(out, port.ObjectInfo{Key: obj.Key, SizeBytes: obj.Size, LastModified: obj.LastModified})
	}
	return out, nil
}
