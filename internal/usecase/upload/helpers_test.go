package upload

import (
	"context"
	"testing"
	"time"

	"github.com/fhuszti/uploads-ms-go/internal/mock"
	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/port"
)

const testOwner = "auth0|user-1"

type fixture struct {
	strg    *mock.Storage
	repo    *mock.RecordRepository
	keys    *mock.KeyRegistry
	tasks   *mock.TaskDispatcher
	metrics *mock.Metrics
}

func newFixture() *fixture {
	return &fixture{
		strg:    &mock.Storage{MissingErr: ErrObjectNotFound},
		repo:    &mock.RecordRepository{},
		keys:    &mock.KeyRegistry{},
		tasks:   &mock.TaskDispatcher{},
		metrics: &mock.Metrics{},
	}
}

func (f *fixture) authorizer() port.UploadAuthorizer {
	return NewAuthorizer(f.strg, f.keys, f.metrics, time.Hour, time.Hour)
}

func (f *fixture) cleaner() port.UploadCleaner {
	return NewCleaner(f.repo, f.strg, f.keys, f.metrics)
}

func (f *fixture) committer() port.UploadCommitter {
	return NewCommitter(f.repo, f.strg, f.keys, f.tasks, f.cleaner(), f.metrics)
}

// authorizeAndUpload issues capabilities for types and stores an object of 1 MiB per key
// with the authorized Content-Type.
func (f *fixture) authorizeAndUpload(t *testing.T, types ...string) port.AuthorizeOutput {
	t.Helper()
	descs := make([]port.FileDescriptor, len(types))
	for i, typ := range types {
		descs[i] = port.FileDescriptor{Name: "file", Type: typ}
	}
	out, err := f.authorizer().Authorize(context.Background(), port.AuthorizeInput{OwnerID: testOwner, Files: descs})
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	for i, c := range out.Capabilities {
		f.strg.Put(c.Key, 1024*1024, types[i])
	}
	return out
}

func commitInput(auth port.AuthorizeOutput, types []model.FileType, videoSeconds int) port.CommitInput {
	in := port.CommitInput{
		OwnerID:                 testOwner,
		BatchID:                 auth.BatchID,
		Role:                    model.RoleTenant,
		Address:                 "12 Rue de la Paix, Paris",
		SecurityDepositAmount:   1200,
		SecurityDepositCurrency: "eur",
		OtherEmail:              "landlord@example.com",
		TotalVideoSeconds:       videoSeconds,
	}
	numImages := 0
	for i, c := range auth.Capabilities {
		name, ext := "photo.jpg", "jpg"
		if types[i] == model.FileTypeVideo {
			name, ext = "walkthrough.mp4", "mp4"
		} else {
			numImages++
		}
		in.UploadedFiles = append(in.UploadedFiles, port.UploadedFile{
			FileName:        name,
			FileExtension:   ext,
			FileSize:        1024 * 1024,
			StorageKey:      c.Key,
			StorageLocation: "https://storage.example.com/" + c.Key,
			Type:            types[i],
		})
	}
	in.TotalCredits = CreditCost(numImages, videoSeconds)
	return in
}
