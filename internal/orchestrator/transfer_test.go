package orchestrator

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPTransferer_Put(t *testing.T) {
	var gotType string
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotLen = len(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	data := bytes.Repeat([]byte("z"), 100_000)
	var last int64
	monotonic := true
	err := NewHTTPTransferer(5*time.Second).Put(context.Background(), srv.URL+"/k", "image/png", bytes.NewReader(data), int64(len(data)), func(sent int64) {
		if sent < last {
			monotonic = false
		}
		last = sent
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotType != "image/png" || gotLen != len(data) {
		t.Errorf("server got type %q, %d bytes", gotType, gotLen)
	}
	if !monotonic || last != int64(len(data)) {
		t.Errorf("progress monotonic=%v last=%d", monotonic, last)
	}
}

func TestHTTPTransferer_Errors(t *testing.T) {
	t.Run("storage rejects", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		err := NewHTTPTransferer(time.Second).Put(context.Background(), srv.URL, "image/png", bytes.NewReader([]byte("x")), 1, nil)
		if err == nil {
			t.Fatal("expected error on 403")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		err := NewHTTPTransferer(50*time.Millisecond).Put(context.Background(), srv.URL, "image/png", bytes.NewReader([]byte("x")), 1, nil)
		if err == nil {
			t.Fatal("expected timeout error")
		}
	})
}
