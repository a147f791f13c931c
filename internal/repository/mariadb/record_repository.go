package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fhuszti/uploads-ms-go/internal/db"
	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/model"
	"github.com/fhuszti/uploads-ms-go/internal/port"
	"github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

type RecordRepository struct {
	db *sql.DB
}

// compile-time check: *RecordRepository must satisfy port.RecordRepository
var _ port.RecordRepository = (*RecordRepository)(nil)

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// CommitUpload locks the caller's credit row, creates the record, charges it and
// creates its files in one transaction.
func (r *RecordRepository) CommitUpload(ctx context.Context, record *model.Record, files []model.File) (err error) {
	logger.Infof(ctx, "committing record #%s with %d files for %d credits...", record.ID, len(files), record.CreditsCharged)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Errorf(ctx, "❌ rollback of record #%s failed: %v", record.ID, rbErr)
			}
		}
	}()

	var available int
	err = tx.QueryRowContext(ctx, `SELECT available_credits FROM users WHERE id = ? FOR UPDATE`, record.UserID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: no credit account for caller", upload.ErrInsufficientCredits)
		return err
	}
	if err != nil {
		return fmt.Errorf("lock credit account: %w", err)
	}
	if available < record.CreditsCharged {
		err = fmt.Errorf("%w: %d available, %d required", upload.ErrInsufficientCredits, available, record.CreditsCharged)
		return err
	}

	const insertRecord = `
      INSERT INTO records
        (id, user_id, batch_id, role, rental_address, security_deposit, currency, other_party_email,
         credits_charged, total_video_seconds, num_images, num_videos, total_images_size_mb, total_videos_size_mb, status)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	if _, err = tx.ExecContext(ctx, insertRecord,
		record.ID, record.UserID, record.BatchID, record.Role, record.RentalAddress,
		record.SecurityDeposit, record.Currency, record.OtherPartyEmail,
		record.CreditsCharged, record.TotalVideoSeconds, record.NumImages, record.NumVideos,
		record.TotalImagesSizeMB, record.TotalVideosSizeMB, model.RecordStatusCreated,
	); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET available_credits = available_credits - ? WHERE id = ? AND available_credits >= ?`,
		record.CreditsCharged, record.UserID, record.CreditsCharged,
	)
	if err != nil {
		return fmt.Errorf("charge credits: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		err = upload.ErrInsufficientCredits
		return err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE records SET status = ? WHERE id = ?`, model.RecordStatusFilesStored, record.ID); err != nil {
		return fmt.Errorf("update record status: %w", err)
	}

	if len(files) > 0 {
		query, args := insertFilesQuery(files)
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			if db.IsDuplicateEntry(err) {
				err = fmt.Errorf("%w: %v", upload.ErrDuplicateObjectKey, err)
				return err
			}
			return fmt.Errorf("insert files: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	record.Status = model.RecordStatusFilesStored
	return nil
}

func insertFilesQuery(files []model.File) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO files (id, record_id, file_name, file_extension, file_size_bytes, storage_key, storage_location, type, upload_status) VALUES `)
	args := make([]any, 0, len(files)*9)
	for i, f := range files {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, f.ID, f.RecordID, f.FileName, f.FileExtension, f.FileSizeBytes,
			f.StorageKey, f.StorageLocation, f.Type, f.UploadStatus)
	}
	return sb.String(), args
}

const recordColumns = `id, user_id, batch_id, role, rental_address, security_deposit, currency, other_party_email,
        credits_charged, total_video_seconds, num_images, num_videos, total_images_size_mb, total_videos_size_mb,
        status, failure_message, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (model.Record, error) {
	var rec model.Record
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.BatchID, &rec.Role, &rec.RentalAddress, &rec.SecurityDeposit,
		&rec.Currency, &rec.OtherPartyEmail, &rec.CreditsCharged, &rec.TotalVideoSeconds,
		&rec.NumImages, &rec.NumVideos, &rec.TotalImagesSizeMB, &rec.TotalVideosSizeMB,
		&rec.Status, &rec.FailureMessage, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func (r *RecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	logger.Debugf(ctx, "fetching record #%s from the database...", id)

	rec, err := scanRecord(r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, upload.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	const filesQuery = `
      SELECT id, record_id, file_name, file_extension, file_size_bytes, storage_key, storage_location,
             type, upload_status, width, height, thumbnail_key, created_at
      FROM files
      WHERE record_id = ?
      ORDER BY created_at, id
    `
	rows, err := r.db.QueryContext(ctx, filesQuery, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var f model.File
		if err := rows.Scan(
			&f.ID, &f.RecordID, &f.FileName, &f.FileExtension, &f.FileSizeBytes, &f.StorageKey,
			&f.StorageLocation, &f.Type, &f.UploadStatus, &f.Width, &f.Height, &f.ThumbnailKey, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Files = append(rec.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (r *RecordRepository) ListByUser(ctx context.Context, userID string) ([]model.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM records WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RecordRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RecordStatus, failureMessage *string) error {
	logger.Infof(ctx, "updating record #%s to status %q...", id, status)

	res, err := r.db.ExecContext(ctx, `UPDATE records SET status = ?, failure_message = ? WHERE id = ?`, status, failureMessage, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return upload.ErrRecordNotFound
	}
	return nil
}

func (r *RecordRepository) UpdateFileInspection(ctx context.Context, fileID uuid.UUID, width, height int, thumbnailKey string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE files SET width = ?, height = ?, thumbnail_key = ? WHERE id = ?`,
		width, height, thumbnailKey, fileID,
	)
	return err
}

func (r *RecordRepository) ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	rows, err := r.db.QueryContext(ctx, `SELECT storage_key FROM files WHERE storage_key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out[k] = true
	}
	return out, rows.Err()
}
