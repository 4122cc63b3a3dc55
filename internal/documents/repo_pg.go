package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, file_name, file_type, document_type, status, size_bytes, pages, source_path, s3_key, analysis_data, needs_review, uploaded_at, processed_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    file_name,
    file_type,
    document_type,
    status,
    size_bytes,
    pages,
    source_path,
    s3_key,
    analysis_data,
    needs_review,
    uploaded_at,
    processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	docType := doc.DocumentType
	if docType == "" {
		docType = "other"
	}
	status := doc.Status
	if status == "" {
		status = StatusPending
	}

	var s3Key sql.NullString
	if doc.S3Key != nil {
		s3Key = sql.NullString{String: *doc.S3Key, Valid: true}
	}
	var sourcePath sql.NullString
	if doc.SourcePath != "" {
		sourcePath = sql.NullString{String: doc.SourcePath, Valid: true}
	}
	var processedAt sql.NullTime
	if doc.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *doc.ProcessedAt, Valid: true}
	}

	var analysisData any
	if doc.AnalysisData != nil {
		raw, err := json.Marshal(doc.AnalysisData)
		if err != nil {
			return fmt.Errorf("marshal analysis data: %w", err)
		}
		analysisData = raw
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		doc.FileType,
		docType,
		status,
		doc.SizeBytes,
		doc.Pages,
		sourcePath,
		s3Key,
		analysisData,
		doc.NeedsReview,
		doc.UploadedAt,
		processedAt,
	)
	return err
}

// GetByID fetches a document and enforces ownership. A document owned by
// another user yields ErrForbidden, not ErrNotFound.
func (r *PGRepo) GetByID(ctx context.Context, id, requestingUserID string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 LIMIT 1`

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if doc.UserID != requestingUserID {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

// GetForProcessing fetches a document without an ownership check.
func (r *PGRepo) GetForProcessing(ctx context.Context, id string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 LIMIT 1`

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first, optionally filtered by status.
func (r *PGRepo) ListByUser(ctx context.Context, userID, status string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY uploaded_at DESC LIMIT %d`, limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// TransitionStatus applies a state-guarded status update in one statement:
// the WHERE clause re-checks the persisted status so a stale event cannot
// regress a record that has already moved on.
func (r *PGRepo) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	if !CanTransition(from, to) {
		return false, nil
	}
	const query = `
UPDATE documents
SET status = $1, processed_at = $2
WHERE id = $3 AND status = $4`

	res, err := r.DB.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkFailed moves a document to failed unless it already reached a terminal state.
func (r *PGRepo) MarkFailed(ctx context.Context, id string) (bool, error) {
	const query = `
UPDATE documents
SET status = $1, processed_at = $2
WHERE id = $3 AND status NOT IN ($4, $5)`

	res, err := r.DB.ExecContext(ctx, query, StatusFailed, time.Now().UTC(), id, StatusCompleted, StatusFailed)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var sourcePath sql.NullString
	var s3Key sql.NullString
	var analysisData []byte
	var processedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.FileType,
		&doc.DocumentType,
		&doc.Status,
		&doc.SizeBytes,
		&doc.Pages,
		&sourcePath,
		&s3Key,
		&analysisData,
		&doc.NeedsReview,
		&doc.UploadedAt,
		&processedAt,
	)
	if err != nil {
		return Document{}, err
	}

	if sourcePath.Valid {
		doc.SourcePath = sourcePath.String
	}
	if s3Key.Valid {
		doc.S3Key = &s3Key.String
	}
	if processedAt.Valid {
		doc.ProcessedAt = &processedAt.Time
	}
	if len(analysisData) > 0 {
		var data AnalysisData
		if err := json.Unmarshal(analysisData, &data); err != nil {
			return Document{}, fmt.Errorf("unmarshal analysis data: %w", err)
		}
		doc.AnalysisData = &data
	}
	return doc, nil
}

var _ Repo = (*PGRepo)(nil)
