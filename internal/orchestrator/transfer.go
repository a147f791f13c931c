package orchestrator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transferer writes one file to a presigned URL.
type Transferer interface {
	Put(ctx context.Context, url, contentType string, body io.Reader, size int64, progress func(sent int64)) error
}

// HTTPTransferer PUTs bytes straight to object storage.
type HTTPTransferer struct {
	http    *http.Client
	timeout time.Duration
}

// compile-time check: *HTTPTransferer must satisfy Transferer
var _ Transferer = (*HTTPTransferer)(nil)

// NewHTTPTransferer bounds every single transfer by timeout.
func NewHTTPTransferer(timeout time.Duration) *HTTPTransferer {
	return &HTTPTransferer{http: &http.Client{}, timeout: timeout}
}

func (t *HTTPTransferer) Put(ctx context.Context, url, contentType string, body io.Reader, size int64, progress func(sent int64)) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	var reqBody io.Reader = http.NoBody
	if size > 0 {
		reqBody = &countingReader{r: body, onRead: progress}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, reqBody)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("storage answered %s", resp.Status)
	}
	return nil
}

type countingReader struct {
	r      io.Reader
	sent   int64
	onRead func(sent int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		if c.onRead != nil {
			c.onRead(c.sent)
		}
	}
	return n, err
}
