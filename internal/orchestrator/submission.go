package orchestrator

import (
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
)

// Status is the lifecycle state of a submission.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAuthorizing Status = "authorizing"
	StatusUploading   Status = "uploading"
	StatusCommitting  Status = "committing"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusExhausted   Status = "exhausted"
)

// FileStatus is the transfer state of a single file.
type FileStatus string

const (
	FilePending   FileStatus = "pending"
	FileUploading FileStatus = "uploading"
	FileUploaded  FileStatus = "uploaded"
	FileFailed    FileStatus = "failed"
)

const DefaultMaxAttempts = 2

// File is one local file of a submission.
type File struct {
	Name        string
	ContentType string
	Size        int64
	// DurationSeconds is charged for videos only.
	DurationSeconds int
	Open            func() (io.ReadCloser, error)
}

// IsVideo reports whether the file is charged per second.
func (f File) IsVideo() bool {
	return strings.HasPrefix(f.ContentType, "video/")
}

func (f File) extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
}

// Metadata holds the business fields sent with the commit.
type Metadata struct {
	Role                    string
	Address                 string
	SecurityDepositAmount   string
	SecurityDepositCurrency string
	OtherEmail              string
}

// FileProgress is the transfer state of one file. Percent never decreases
// within an attempt.
type FileProgress struct {
	Name    string
	Key     string
	Status  FileStatus
	Percent int
}

// Submission is the explicit state of one user submission across attempts.
// It is safe for concurrent use by the transfers of a single attempt.
type Submission struct {
	Files       []File
	Metadata    Metadata
	MaxAttempts int

	mu           sync.Mutex
	attempt      int
	status       Status
	retryable    bool
	uploadedKeys map[string]struct{}
	progress     []FileProgress
	batchID      string
	recordID     string
	lastErr      error
}

func NewSubmission(files []File, meta Metadata, maxAttempts int) *Submission {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	s := &Submission{Files: files, Metadata: meta, MaxAttempts: maxAttempts, status: StatusPending}
	s.resetProgress()
	return s
}

func (s *Submission) Attempt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

func (s *Submission) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Submission) RecordID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordID
}

func (s *Submission) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// CanRetry reports whether the user may upload again.
func (s *Submission) CanRetry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canRetryLocked()
}

func (s *Submission) canRetryLocked() bool {
	switch s.status {
	case StatusPending:
		return true
	case StatusFailed:
		return s.retryable && s.attempt < s.MaxAttempts
	default:
		return false
	}
}

// UploadedKeys returns the keys of the current attempt whose transfer completed.
func (s *Submission) UploadedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.uploadedKeys))
	for k := range s.uploadedKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Progress returns a copy of the per-file progress.
func (s *Submission) Progress() []FileProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FileProgress, len(s.progress))
	copy(out, s.progress)
	return out
}

// AggregateProgress is the arithmetic mean of the per-file percentages. Every
// file weighs the same regardless of its size.
func (s *Submission) AggregateProgress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.progress) == 0 {
		return 0
	}
	total := 0
	for _, p := range s.progress {
		total += p.Percent
	}
	return float64(total) / float64(len(s.progress))
}

// Cost returns the credits the submission will be charged.
func (s *Submission) Cost() (credits, videoSeconds int) {
	images := 0
	for _, f := range s.Files {
		if f.IsVideo() {
			videoSeconds += f.DurationSeconds
		} else {
			images++
		}
	}
	return upload.CreditCost(images, videoSeconds), videoSeconds
}

func (s *Submission) resetProgress() {
	s.uploadedKeys = make(map[string]struct{})
	s.progress = make([]FileProgress, len(s.Files))
	for i, f := range s.Files {
		s.progress[i] = FileProgress{Name: f.Name, Status: FilePending}
	}
}

func (s *Submission) beginAttempt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusExhausted {
		return ErrAttemptsExhausted
	}
	if !s.canRetryLocked() {
		return ErrNotRetryable
	}
	s.attempt++
	s.status = StatusAuthorizing
	s.retryable = false
	s.lastErr = nil
	s.batchID = ""
	s.resetProgress()
	return nil
}

func (s *Submission) setStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

func (s *Submission) setBatch(batchID string, caps []Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchID = batchID
	for i := range s.progress {
		s.progress[i].Key = caps[i].Key
	}
}

func (s *Submission) setFileStatus(i int, st FileStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[i].Status = st
}

// setPercent records transfer progress, ignoring values below the current one.
func (s *Submission) setPercent(i, pct int) {
	if pct > 100 {
		pct = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pct > s.progress[i].Percent {
		s.progress[i].Percent = pct
	}
}

func (s *Submission) markUploaded(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[i].Status = FileUploaded
	s.progress[i].Percent = 100
	s.uploadedKeys[s.progress[i].Key] = struct{}{}
}

func (s *Submission) succeed(recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusSucceeded
	s.recordID = recordID
}

func (s *Submission) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	s.retryable = IsRetryable(err)
	if s.retryable && s.attempt >= s.MaxAttempts {
		s.status = StatusExhausted
		return
	}
	s.status = StatusFailed
}
