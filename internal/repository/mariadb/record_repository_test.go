package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

func newRepo(t *testing.T) (*RecordRepository, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewRecordRepository(sqlDB), mock
}

func sampleRecord(numImages int) (*model.Record, []model.File) {
	rec := &model.Record{
		ID:                uuid.NewUUID(),
		UserID:            "user-1",
		BatchID:           uuid.NewUUID(),
		Role:              model.RoleTenant,
		RentalAddress:     "1 Main St",
		SecurityDeposit:   900,
		Currency:          "EUR",
		OtherPartyEmail:   "other@example.com",
		CreditsCharged:    numImages,
		NumImages:         numImages,
		TotalImagesSizeMB: 1.5,
		Status:            model.RecordStatusCreated,
	}
	files := make([]model.File, numImages)
	for i := range files {
		files[i] = model.File{
			ID:              uuid.NewUUID(),
			RecordID:        rec.ID,
			FileName:        "a.jpg",
			FileExtension:   "jpg",
			FileSizeBytes:   100,
			StorageKey:      "uploads/o/b/" + uuid.NewUUID().String(),
			StorageLocation: "https://s/x",
			Type:            model.FileTypeImage,
			UploadStatus:    model.FileUploadStatusUploaded,
		}
	}
	return rec, files
}

func TestCommitUpload_Success(t *testing.T) {
	repo, mock := newRepo(t)
	rec, files := sampleRecord(2)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT available_credits FROM users WHERE id = \? FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"available_credits"}).AddRow(10))
	mock.ExpectExec(`INSERT INTO records`).
		WithArgs(rec.ID, "user-1", rec.BatchID, model.RoleTenant, "1 Main St", int64(900), "EUR", "other@example.com",
			2, 0, 2, 0, 1.5, 0.0, model.RecordStatusCreated).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET available_credits = available_credits - \?`).
		WithArgs(2, "user-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE records SET status = \? WHERE id = \?`).
		WithArgs(model.RecordStatusFilesStored, rec.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO files .* VALUES \(\?, \?, \?, \?, \?, \?, \?, \?, \?\), \(\?, \?, \?, \?, \?, \?, \?, \?, \?\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.CommitUpload(context.Background(), rec, files); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != model.RecordStatusFilesStored {
		t.Errorf("status = %q", rec.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCommitUpload_InsufficientCreditsWritesNothing(t *testing.T) {
	repo, mock := newRepo(t)
	rec, files := sampleRecord(7)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT available_credits FROM users`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"available_credits"}).AddRow(5))
	mock.ExpectRollback()

	err := repo.CommitUpload(context.Background(), rec, files)
	if !errors.Is(err, upload.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCommitUpload_UnknownUser(t *testing.T) {
	repo, mock := newRepo(t)
	rec, files := sampleRecord(1)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT available_credits FROM users`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	if err := repo.CommitUpload(context.Background(), rec, files); !errors.Is(err, upload.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCommitUpload_ConcurrentDecrementLost(t *testing.T) {
	repo, mock := newRepo(t)
	rec, files := sampleRecord(1)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT available_credits FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"available_credits"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO records`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET available_credits`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.CommitUpload(context.Background(), rec, files); !errors.Is(err, upload.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCommitUpload_FileInsertFailureRollsBackCharge(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"duplicate key", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, upload.ErrDuplicateObjectKey},
		{"other failure", errors.New("connection lost"), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newRepo(t)
			rec, files := sampleRecord(1)

			mock.ExpectBegin()
			mock.ExpectQuery(`SELECT available_credits FROM users`).
				WillReturnRows(sqlmock.NewRows([]string{"available_credits"}).AddRow(3))
			mock.ExpectExec(`INSERT INTO records`).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(`UPDATE users SET available_credits`).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(`UPDATE records SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(`INSERT INTO files`).WillReturnError(tc.err)
			mock.ExpectRollback()

			err := repo.CommitUpload(context.Background(), rec, files)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if rec.Status == model.RecordStatusFilesStored {
				t.Error("status must not change on rollback")
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

var recordCols = []string{
	"id", "user_id", "batch_id", "role", "rental_address", "security_deposit", "currency", "other_party_email",
	"credits_charged", "total_video_seconds", "num_images", "num_videos", "total_images_size_mb", "total_videos_size_mb",
	"status", "failure_message", "created_at", "updated_at",
}

func recordRow(rows *sqlmock.Rows, id uuid.UUID, status model.RecordStatus) *sqlmock.Rows {
	idBytes, _ := id.Value()
	batchBytes, _ := uuid.NewUUID().Value()
	now := time.Now()
	return rows.AddRow(idBytes, "user-1", batchBytes, "Tenant", "1 Main St", 900, "EUR", "o@example.com",
		2, 0, 2, 0, 1.5, 0.0, string(status), nil, now, now)
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepo(t)
	id := uuid.NewUUID()
	fileID, _ := uuid.NewUUID().Value()
	idBytes, _ := id.Value()

	mock.ExpectQuery(`SELECT .* FROM records WHERE id = \?`).
		WithArgs(id).
		WillReturnRows(recordRow(sqlmock.NewRows(recordCols), id, model.RecordStatusFilesStored))
	mock.ExpectQuery(`FROM files`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "record_id", "file_name", "file_extension", "file_size_bytes", "storage_key", "storage_location",
			"type", "upload_status", "width", "height", "thumbnail_key", "created_at",
		}).AddRow(fileID, idBytes, "a.jpg", "jpg", 100, "uploads/k", "https://s/k", "IMAGE", "UPLOADED", 800, 600, "uploads/k_thumb.webp", time.Now()))

	rec, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != id || rec.Status != model.RecordStatusFilesStored || rec.UserID != "user-1" {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Files) != 1 || rec.Files[0].Type != model.FileTypeImage || *rec.Files[0].Width != 800 {
		t.Errorf("files = %+v", rec.Files)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`FROM records`).WillReturnRows(sqlmock.NewRows(recordCols))

	if _, err := repo.GetByID(context.Background(), uuid.NewUUID()); !errors.Is(err, upload.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestListByUser(t *testing.T) {
	repo, mock := newRepo(t)
	rows := sqlmock.NewRows(recordCols)
	recordRow(rows, uuid.NewUUID(), model.RecordStatusReadyForProcessing)
	recordRow(rows, uuid.NewUUID(), model.RecordStatusFailed)
	mock.ExpectQuery(`FROM records WHERE user_id = \? ORDER BY created_at DESC`).WithArgs("user-1").WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1].Status != model.RecordStatusFailed {
		t.Errorf("got %+v", got)
	}
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newRepo(t)
	id := uuid.NewUUID()
	reason := "decode failed"

	mock.ExpectExec(`UPDATE records SET status = \?, failure_message = \? WHERE id = \?`).
		WithArgs(model.RecordStatusFailed, reason, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE records SET status`).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateStatus(context.Background(), id, model.RecordStatusFailed, &reason); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), uuid.NewUUID(), model.RecordStatusFailed, nil); !errors.Is(err, upload.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUpdateFileInspection(t *testing.T) {
	repo, mock := newRepo(t)
	id := uuid.NewUUID()

	mock.ExpectExec(`UPDATE files SET width = \?, height = \?, thumbnail_key = \? WHERE id = \?`).
		WithArgs(640, 480, "k_thumb.webp", id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateFileInspection(context.Background(), id, 640, 480, "k_thumb.webp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestReferencedKeys(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`SELECT storage_key FROM files WHERE storage_key IN \(\?, \?, \?\)`).
		WithArgs("a", "b", "c").
		WillReturnRows(sqlmock.NewRows([]string{"storage_key"}).AddRow("b"))

	got, err := repo.ReferencedKeys(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got["b"] {
		t.Errorf("got %v", got)
	}

	empty, err := repo.ReferencedKeys(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty lookup = %v, %v", empty, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
