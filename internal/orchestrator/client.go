package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type FileDescriptor struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Capability struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthorizeResponse struct {
	Capabilities []Capability `json:"capabilities"`
	BatchID      string       `json:"batchId"`
}

type UploadedFile struct {
	FileName        string `json:"fileName"`
	FileExtension   string `json:"fileExtension"`
	FileSize        int64  `json:"fileSize"`
	StorageKey      string `json:"storageKey"`
	StorageLocation string `json:"storageLocation"`
	Type            string `json:"type"`
}

type CommitRequest struct {
	BatchID                 string         `json:"batchId"`
	Role                    string         `json:"role"`
	Address                 string         `json:"address"`
	SecurityDepositAmount   string         `json:"securityDepositAmount"`
	SecurityDepositCurrency string         `json:"securityDepositCurrency"`
	OtherEmail              string         `json:"otherEmail"`
	TotalCredits            int            `json:"totalCredits"`
	TotalVideoSeconds       int            `json:"totalVideoSeconds"`
	UploadedFiles           []UploadedFile `json:"uploadedFiles"`
}

type CommitResponse struct {
	Success        bool   `json:"success"`
	RecordID       string `json:"recordId"`
	CreditsCharged int    `json:"creditsCharged"`
}

type CleanupResponse struct {
	Deleted []string `json:"deleted"`
	Skipped []string `json:"skipped"`
	Failed  []string `json:"failed"`
}

// API is the uploads service as seen by the orchestrator.
type API interface {
	Authorize(ctx context.Context, files []FileDescriptor) (AuthorizeResponse, error)
	Commit(ctx context.Context, req CommitRequest) (CommitResponse, error)
	Cleanup(ctx context.Context, keys []string) (CleanupResponse, error)
}

// Client calls the uploads HTTP API with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// compile-time check: *Client must satisfy API
var _ API = (*Client)(nil)

// NewClient returns a client whose calls each time out after timeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Authorize(ctx context.Context, files []FileDescriptor) (AuthorizeResponse, error) {
	var out AuthorizeResponse
	err := c.post(ctx, "/upload/authorize", map[string]any{"files": files}, &out, "authorize", KindAuthorizationFailure)
	return out, err
}

func (c *Client) Commit(ctx context.Context, req CommitRequest) (CommitResponse, error) {
	var out CommitResponse
	err := c.post(ctx, "/upload/commit", req, &out, "commit", KindCommitFailure)
	return out, err
}

func (c *Client) Cleanup(ctx context.Context, keys []string) (CleanupResponse, error) {
	var out CleanupResponse
	err := c.post(ctx, "/upload/cleanup", map[string]any{"keys": keys}, &out, "cleanup", KindCleanupFailure)
	return out, err
}

// post sends in as JSON and decodes a 2xx answer into out. Transport errors
// and unexpected statuses are reported with the fallback kind.
func (c *Client) post(ctx context.Context, path string, in, out any, op string, fallback Kind) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &Error{Op: op, Kind: KindInvalidInput, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &Error{Op: op, Kind: fallback, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Kind: fallback, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Op: op, Kind: fallback, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, Kind: kindForStatus(resp.StatusCode, fallback), Status: resp.StatusCode, Err: errors.New(errorMessage(raw))}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Op: op, Kind: fallback, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func kindForStatus(status int, fallback Kind) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusBadRequest:
		return KindInvalidInput
	case http.StatusPaymentRequired:
		return KindInsufficientCredits
	case http.StatusConflict:
		return KindDuplicateObjectKey
	default:
		return fallback
	}
}

// errorMessage extracts {"error": msg} bodies and falls back to the raw text.
func errorMessage(raw []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Error != "" {
		return e.Error
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return "empty response"
	}
	return msg
}
