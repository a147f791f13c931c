package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/orchestrator"
	"github.com/fhuszti/uploads-ms-go/internal/storage"
	"github.com/fhuszti/uploads-ms-go/test/testutil"
)

var (
	minioInfo *testutil.MinIOContainerInfo
	redisAddr string
)

func TestMain(m *testing.M) {
	code := func() int {
		dbCleanup, err := setupMariaDB()
		if err != nil {
			fmt.Fprintf(os.Stderr, "DB setup failed: %v\n", err)
			return 1
		}
		defer dbCleanup()

		minioCleanup, err := setupMinIO()
		if err != nil {
			fmt.Fprintf(os.Stderr, "MinIO setup failed: %v\n", err)
			return 1
		}
		defer minioCleanup()

		redisCleanup, err := setupRedis()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Redis setup failed: %v\n", err)
			return 1
		}
		defer redisCleanup()

		return m.Run()
	}()

	os.Exit(code)
}

func setupMariaDB() (cleanup func(), err error) {
	if os.Getenv("TEST_DB_DSN") != "" {
		// CI provided it; nothing to clean up
		return func() {}, nil
	}

	mdb, err := testutil.StartMariaDBContainer()
	if err != nil {
		return nil, err
	}
	_ = os.Setenv("TEST_DB_DSN", mdb.DSN)

	return mdb.Cleanup, nil
}

func setupMinIO() (cleanup func(), err error) {
	if endpoint := os.Getenv("TEST_MINIO_ENDPOINT"); endpoint != "" {
		minioInfo = &testutil.MinIOContainerInfo{
			Endpoint:  endpoint,
			AccessKey: os.Getenv("TEST_MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("TEST_MINIO_SECRET_KEY"),
			Cleanup:   func() {},
		}
		return minioInfo.Cleanup, nil
	}

	mi, err := testutil.StartMinIOContainer()
	if err != nil {
		return nil, err
	}
	minioInfo = mi

	return mi.Cleanup, nil
}

func setupRedis() (cleanup func(), err error) {
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		redisAddr = addr
		return func() {}, nil
	}

	ri, err := testutil.StartRedisContainer()
	if err != nil {
		return nil, err
	}
	redisAddr = ri.Addr

	return ri.Cleanup, nil
}

func newDB(t *testing.T) *testutil.TestDB {
	t.Helper()
	testDB, err := testutil.SetupTestDB()
	if err != nil {
		t.Fatalf("setup DB: %v", err)
	}
	t.Cleanup(func() { _ = testDB.Cleanup() })
	return testDB
}

func newStorage(t *testing.T) *storage.MinioStorage {
	t.Helper()
	bucket := fmt.Sprintf("uploads-%d", time.Now().UnixNano())
	strg, err := minioInfo.NewStorage(context.Background(), bucket)
	if err != nil {
		t.Fatalf("setup storage: %v", err)
	}
	return strg
}

func pngFile(name string, data []byte) orchestrator.File {
	return orchestrator.File{
		Name:        name,
		ContentType: "image/png",
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func testMetadata() orchestrator.Metadata {
	return orchestrator.Metadata{
		Role:                    "Tenant",
		Address:                 "12 Rue de la Paix, Paris",
		SecurityDepositAmount:   "120000",
		SecurityDepositCurrency: "EUR",
		OtherEmail:              "landlord@example.com",
	}
}

func newOrchestrator(apiURL string) *orchestrator.Orchestrator {
	return orchestrator.New(
		orchestrator.NewClient(apiURL, "", 10*time.Second),
		orchestrator.NewHTTPTransferer(30*time.Second),
		orchestrator.WithConcurrency(2),
	)
}
