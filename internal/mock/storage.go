package mock

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/port"
)

// Storage is an in-memory port.Storage for tests.
type Storage struct {
	mu sync.Mutex

	// stored values, keyed by object key
	Objects map[string]port.FileInfo
	Content map[string][]byte

	// captured inputs
	PresignedKeys  []string
	PresignedTypes []string
	TTL            time.Duration
	Removed        []string
	Saved          map[string][]byte

	// errors
	InitBucketErr         error
	GenerateUploadLinkErr error
	StatErr               error
	GetErr                error
	SaveErr               error
	ListErr               error
	RemoveErrs            map[string]error
	// MissingErr is returned for unknown keys by StatFile, GetFile and RemoveFile.
	MissingErr error

	// call flags
	InitBucketCalled bool
	StatCalled       bool
	RemoveCalled     bool
	GetCalled        bool
	SaveCalled       bool
	ListCalled       bool
}

// Put registers an object of the given size and Content-Type.
func (m *Storage) Put(key string, size int64, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Objects == nil {
		m.Objects = map[string]port.FileInfo{}
	}
	m.Objects[key] = port.FileInfo{SizeBytes: size, ContentType: contentType, LastModified: time.Now()}
}

func (m *Storage) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[key]
	return ok
}

func (m *Storage) InitBucket(ctx context.Context) error {
	m.InitBucketCalled = true
	return m.InitBucketErr
}

func (m *Storage) GeneratePresignedUploadURL(ctx context.Context, fileKey, contentType string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GenerateUploadLinkErr != nil {
		return "", m.GenerateUploadLinkErr
	}
	m.PresignedKeys = append(m.PresignedKeys, fileKey)
	m.PresignedTypes = append(m.PresignedTypes, contentType)
	m.TTL = expiry
	return "https://storage.example.com/" + fileKey + "?signed", nil
}

func (m *Storage) ObjectLocation(fileKey string) string {
	return "https://storage.example.com/" + fileKey
}

func (m *Storage) StatFile(ctx context.Context, fileKey string) (port.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatCalled = true
	if m.StatErr != nil {
		return port.FileInfo{}, m.StatErr
	}
	info, ok := m.Objects[fileKey]
	if !ok {
		return port.FileInfo{}, m.MissingErr
	}
	return info, nil
}

func (m *Storage) RemoveFile(ctx context.Context, fileKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalled = true
	if err := m.RemoveErrs[fileKey]; err != nil {
		return err
	}
	if _, ok := m.Objects[fileKey]; !ok && m.MissingErr != nil {
		return m.MissingErr
	}
	delete(m.Objects, fileKey)
	m.Removed = append(m.Removed, fileKey)
	return nil
}

func (m *Storage) GetFile(ctx context.Context, fileKey string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalled = true
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if _, ok := m.Objects[fileKey]; !ok {
		return nil, m.MissingErr
	}
	return io.NopCloser(bytes.NewReader(m.Content[fileKey])), nil
}

func (m *Storage) SaveFile(ctx context.Context, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalled = true
	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if m.Saved == nil {
		m.Saved = map[string][]byte{}
	}
	m.Saved[fileKey] = data
	return nil
}

func (m *Storage) ListFiles(ctx context.Context, prefix string) ([]port.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalled = true
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []port.ObjectInfo
	for k, info := range m.Objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, port.ObjectInfo{Key: k, SizeBytes: info.SizeBytes, LastModified: info.LastModified})
		}
	}
	return out, nil
}
