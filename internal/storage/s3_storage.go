package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/port"
)

type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Storage struct {
	client     s3API
	presigner  s3Presigner
	bucketName string
	region     string
}

// compile-time check: *S3Storage must satisfy port.Storage
var _ port.Storage = (*S3Storage)(nil)

// NewS3Storage builds an AWS S3 backend. Empty keys fall back to the default credential chain.
func NewS3Storage(ctx context.Context, region, accessKey, secretKey, bucket string) (*S3Storage, error) {
	logger.Info(ctx, "initialising s3 client...")
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Storage{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucketName: bucket,
		region:     region,
	}, nil
}

func (s *S3Storage) InitBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	if err == nil {
		return nil
	}
	if mapped := mapS3Err(err); mapped != nil && !isMissing(mapped) {
		return mapped
	}

	logger.Warnf(ctx, "bucket %q does not exist, creating it...", s.bucketName)
	in := &s3.CreateBucketInput{Bucket: aws.String(s.bucketName)}
	if s.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	_, err = s.client.CreateBucket(ctx, in)
	return mapS3Err(err)
}

// GeneratePresignedUploadURL signs the Content-Type header in, so the upload must declare it.
func (s *S3Storage) GeneratePresignedUploadURL(ctx context.Context, fileKey, contentType string, expiry time.Duration) (string, error) {
	logger.Debugf(ctx, "generating a presigned upload link for file %q in bucket %q...", fileKey, s.bucketName)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(fileKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", mapS3Err(err)
	}
	return req.URL, nil
}

func (s *S3Storage) ObjectLocation(fileKey string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, fileKey)
}

func (s *S3Storage) StatFile(ctx context.Context, fileKey string) (port.FileInfo, error) {
	logger.Debugf(ctx, "getting stats on file %q in bucket %q...", fileKey, s.bucketName)

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(fileKey),
	})
	if err != nil {
		return port.FileInfo{}, mapS3Err(err)
	}
	return port.FileInfo{
		SizeBytes:    aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (s *S3Storage) RemoveFile(ctx context.Context, fileKey string) error {
	logger.Debugf(ctx, "removing file %q from bucket %q...", fileKey, s.bucketName)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(fileKey),
	})
	return mapS3Err(err)
}

func (s *S3Storage) GetFile(ctx context.Context, fileKey string) (io.ReadCloser, error) {
	logger.Debugf(ctx, "getting file %q from bucket %q...", fileKey, s.bucketName)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(fileKey),
	})
	if err != nil {
		return nil, mapS3Err(err)
	}
	return out.Body, nil
}

func (s *S3Storage) SaveFile(ctx context.Context, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error {
	logger.Debugf(ctx, "saving file %q into bucket %q...", fileKey, s.bucketName)

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(fileKey),
		Body:   reader,
	}
	if fileSize >= 0 {
		in.ContentLength = aws.Int64(fileSize)
	}
	if ct := opts["Content-Type"]; ct != "" {
		in.ContentType = aws.String(ct)
	}

	_, err := s.client.PutObject(ctx, in)
	return mapS3Err(err)
}

func (s *S3Storage) ListFiles(ctx context.Context, prefix string) ([]port.ObjectInfo, error) {
	var out []port.ObjectInfo
	pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(prefix),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapS3Err(err)
		}
		for _, obj := range page.Contents {
			out = append(out, port.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				SizeBytes:    aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}
