package orchestrator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeBackend serves the uploads API and a presigned-PUT storage endpoint.
type fakeBackend struct {
	srv *httptest.Server

	mu             sync.Mutex
	failPut        func(attempt, index int) bool
	commitStatus   int
	commitBody     string
	authorizeCode  int
	authorizeCalls int
	commitCalls    int
	commitReq      CommitRequest
	putTypes       map[int]string
	putBodies      map[int][]byte
	cleaned        [][]string
	authHeader     string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{putTypes: map[int]string{}, putBodies: map[int][]byte{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/authorize", b.authorize)
	mux.HandleFunc("PUT /bucket/{index}", b.put)
	mux.HandleFunc("POST /upload/commit", b.commit)
	mux.HandleFunc("POST /upload/cleanup", b.cleanup)

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) authorize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Files []FileDescriptor `json:"files"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	b.authorizeCalls++
	b.authHeader = r.Header.Get("Authorization")
	code := b.authorizeCode
	b.mu.Unlock()

	if code != 0 {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
		return
	}

	out := AuthorizeResponse{BatchID: "batch-1"}
	for i := range req.Files {
		out.Capabilities = append(out.Capabilities, Capability{
			URL:       fmt.Sprintf("%s/bucket/%d?X-Amz-Signature=abc", b.srv.URL, i),
			Key:       fmt.Sprintf("uploads/o/b/%d", i),
			ExpiresAt: time.Now().Add(time.Hour),
		})
	}
	_ = json.NewEncoder(w).Encode(out)
}

func (b *fakeBackend) put(w http.ResponseWriter, r *http.Request) {
	i, _ := strconv.Atoi(r.PathValue("index"))
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	attempt := b.authorizeCalls
	fail := b.failPut != nil && b.failPut(attempt, i)
	if !fail {
		b.putTypes[i] = r.Header.Get("Content-Type")
		b.putBodies[i] = body
	}
	b.mu.Unlock()

	if fail {
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (b *fakeBackend) commit(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.commitCalls++
	_ = json.NewDecoder(r.Body).Decode(&b.commitReq)
	status, body := b.commitStatus, b.commitBody
	b.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
		return
	}
	_, _ = w.Write([]byte(`{"success":true,"recordId":"rec-1","creditsCharged":6}`))
}

func (b *fakeBackend) cleanup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keys []string `json:"keys"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	b.cleaned = append(b.cleaned, req.Keys)
	b.mu.Unlock()

	_ = json.NewEncoder(w).Encode(CleanupResponse{Deleted: req.Keys})
}

func memFile(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func threeFiles() []File {
	video := memFile("clip.MP4", "video/mp4", bytes.Repeat([]byte("v"), 4096))
	video.DurationSeconds = 4
	return []File{
		memFile("front.jpg", "image/jpeg", bytes.Repeat([]byte("a"), 1024)),
		memFile("back.png", "image/png", bytes.Repeat([]byte("b"), 2048)),
		video,
	}
}

func testMetadata() Metadata {
	return Metadata{
		Role:                    "Tenant",
		Address:                 "1 Main St",
		SecurityDepositAmount:   "900",
		SecurityDepositCurrency: "EUR",
		OtherEmail:              "landlord@example.com",
	}
}

func newTestOrchestrator(b *fakeBackend, opts ...Option) *Orchestrator {
	return New(NewClient(b.srv.URL, "tok", 5*time.Second), NewHTTPTransferer(5*time.Second), opts...)
}
