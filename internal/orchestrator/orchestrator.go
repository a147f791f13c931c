package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
)

const defaultConcurrency = 3

// Orchestrator drives a submission through authorize, transfer and commit.
type Orchestrator struct {
	api         API
	transfer    Transferer
	concurrency int
	onProgress  func(*Submission)
}

type Option func(*Orchestrator)

// WithConcurrency bounds the number of simultaneous transfers.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithProgress registers a callback invoked after every progress change.
func WithProgress(fn func(*Submission)) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

func New(api API, transfer Transferer, opts ...Option) *Orchestrator {
	o := &Orchestrator{api: api, transfer: transfer, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs one attempt of the submission. On failure the objects already
// transferred in this attempt are cleaned up before the error is returned, and
// the submission records whether another attempt is allowed.
func (o *Orchestrator) Run(ctx context.Context, s *Submission) error {
	if err := s.beginAttempt(); err != nil {
		return err
	}
	logger.Infof(ctx, "🚀 starting attempt %d/%d for %d files", s.Attempt(), s.MaxAttempts, len(s.Files))

	descriptors := make([]FileDescriptor, len(s.Files))
	for i, f := range s.Files {
		descriptors[i] = FileDescriptor{Name: f.Name, Type: f.ContentType}
	}
	auth, err := o.api.Authorize(ctx, descriptors)
	if err != nil {
		return o.abort(ctx, s, err)
	}
	if len(auth.Capabilities) != len(s.Files) {
		return o.abort(ctx, s, &Error{
			Op:   "authorize",
			Kind: KindAuthorizationFailure,
			Err:  fmt.Errorf("got %d capabilities for %d files", len(auth.Capabilities), len(s.Files)),
		})
	}
	s.setBatch(auth.BatchID, auth.Capabilities)

	s.setStatus(StatusUploading)
	if err := o.transferAll(ctx, s, auth.Capabilities); err != nil {
		return o.abort(ctx, s, err)
	}

	s.setStatus(StatusCommitting)
	credits, videoSeconds := s.Cost()
	req := CommitRequest{
		BatchID:                 auth.BatchID,
		Role:                    s.Metadata.Role,
		Address:                 s.Metadata.Address,
		SecurityDepositAmount:   s.Metadata.SecurityDepositAmount,
		SecurityDepositCurrency: s.Metadata.SecurityDepositCurrency,
		OtherEmail:              s.Metadata.OtherEmail,
		TotalCredits:            credits,
		TotalVideoSeconds:       videoSeconds,
		UploadedFiles:           make([]UploadedFile, len(s.Files)),
	}
	for i, f := range s.Files {
		fileType := "IMAGE"
		if f.IsVideo() {
			fileType = "VIDEO"
		}
		req.UploadedFiles[i] = UploadedFile{
			FileName:        f.Name,
			FileExtension:   f.extension(),
			FileSize:        f.Size,
			StorageKey:      auth.Capabilities[i].Key,
			StorageLocation: objectURL(auth.Capabilities[i].URL),
			Type:            fileType,
		}
	}

	out, err := o.api.Commit(ctx, req)
	if err != nil {
		return o.abort(ctx, s, err)
	}

	s.succeed(out.RecordID)
	logger.Infof(ctx, "✅ submission committed as record #%s for %d credits", out.RecordID, out.CreditsCharged)
	return nil
}

func (o *Orchestrator) transferAll(ctx context.Context, s *Submission, caps []Capability) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i := range s.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &Error{Op: "transfer " + s.Files[i].Name, Kind: KindTransferFailure, Err: err}
			}
			return o.transferOne(gctx, s, i, caps[i])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// every file must be stored before commit
	if err := ctx.Err(); err != nil {
		return &Error{Op: "transfer", Kind: KindTransferFailure, Err: err}
	}
	return nil
}

func (o *Orchestrator) transferOne(ctx context.Context, s *Submission, i int, c Capability) error {
	f := s.Files[i]
	fail := func(err error) error {
		s.setFileStatus(i, FileFailed)
		o.notify(s)
		return &Error{Op: "transfer " + f.Name, Kind: KindTransferFailure, Err: err}
	}

	r, err := f.Open()
	if err != nil {
		return fail(err)
	}
	defer func() { _ = r.Close() }()

	s.setFileStatus(i, FileUploading)
	o.notify(s)
	err = o.transfer.Put(ctx, c.URL, f.ContentType, r, f.Size, func(sent int64) {
		if f.Size > 0 {
			s.setPercent(i, int(sent*100/f.Size))
			o.notify(s)
		}
	})
	if err != nil {
		return fail(err)
	}

	s.markUploaded(i)
	o.notify(s)
	return nil
}

// abort removes the objects transferred so far and records the failure.
// Cleanup problems are logged and never replace err.
func (o *Orchestrator) abort(ctx context.Context, s *Submission, err error) error {
	if keys := s.UploadedKeys(); len(keys) > 0 {
		res, cleanupErr := o.api.Cleanup(context.WithoutCancel(ctx), keys)
		switch {
		case cleanupErr != nil:
			logger.Warnf(ctx, "⚠️ cleanup of %d uploaded objects failed: %v", len(keys), cleanupErr)
		case len(res.Failed) > 0:
			logger.Warnf(ctx, "⚠️ cleanup left %d of %d objects behind", len(res.Failed), len(keys))
		default:
			logger.Infof(ctx, "cleaned up %d uploaded objects", len(keys))
		}
	}

	s.fail(err)
	if s.Status() == StatusExhausted {
		logger.Errorf(ctx, "❌ attempt %d failed, no attempts left: %v", s.Attempt(), err)
	} else {
		logger.Errorf(ctx, "❌ attempt %d failed: %v", s.Attempt(), err)
	}
	return err
}

func (o *Orchestrator) notify(s *Submission) {
	if o.onProgress != nil {
		o.onProgress(s)
	}
}

// objectURL strips the signature from a presigned URL.
func objectURL(presigned string) string {
	return strings.SplitN(presigned, "?", 2)[0]
}
