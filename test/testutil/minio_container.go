package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ory/dockertest/v3"

	"github.com/fhuszti/uploads-ms-go/internal/storage"
)

type MinIOContainerInfo struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Cleanup   func()
}

// NewStorage returns a storage backed by a fresh bucket.
func (ci *MinIOContainerInfo) NewStorage(ctx context.Context, bucket string) (*storage.MinioStorage, error) {
	strg, err := storage.NewMinioStorage(ci.Endpoint, ci.AccessKey, ci.SecretKey, bucket, false)
	if err != nil {
		return nil, fmt.Errorf("could not create minio client: %w", err)
	}
	if err := strg.InitBucket(ctx); err != nil {
		return nil, fmt.Errorf("could not create bucket %q: %w", bucket, err)
	}
	return strg, nil
}

func StartMinIOContainer() (*MinIOContainerInfo, error) {
	const (
		rootUser     = "minioadmin"
		rootPassword = "minioadmin"
	)

	port, cleanup, err := startContainer("minio", &dockertest.RunOptions{
		Repository: "minio/minio",
		Tag:        "latest",
		Env: []string{
			"MINIO_ROOT_USER=" + rootUser,
			"MINIO_ROOT_PASSWORD=" + rootPassword,
		},
		Cmd: []string{"server", "/data"},
	}, "9000/tcp", func(port string) error {
		client, err := minio.New("localhost:"+port, &minio.Options{
			Creds:  credentials.NewStaticV4(rootUser, rootPassword, ""),
			Secure: false,
		})
		if err != nil {
			return err
		}
		// ListBuckets is a light operation to check health
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err = client.ListBuckets(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &MinIOContainerInfo{
		Endpoint:  "localhost:" + port,
		AccessKey: rootUser,
		SecretKey: rootPassword,
		Cleanup:   cleanup,
	}, nil
}
