package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"findocs-backend/internal/docparse"
)

func summaryWithTotal(total string) docparse.Summary {
	return docparse.Summary{Total: &total}
}

func TestPGRepoCreatePersistsAnalysisPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	key := "users/abc/statement.pdf"
	total := "1,234.56"
	doc := Document{
		ID:           "doc-1",
		UserID:       "user-1",
		FileName:     "statement.pdf",
		FileType:     "application/pdf",
		DocumentType: "bank-statement",
		Status:       StatusCompleted,
		SizeBytes:    2048,
		Pages:        3,
		SourcePath:   "statement.pdf",
		S3Key:        &key,
		AnalysisData: &AnalysisData{
			Summary:  summaryWithTotal(total),
			Preview:  []string{"Bank Statement"},
			FullText: "Bank Statement\nTotal: $1,234.56",
		},
		NeedsReview: false,
		UploadedAt:  now,
		ProcessedAt: &now,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			doc.ID,
			doc.UserID,
			doc.FileName,
			doc.FileType,
			doc.DocumentType,
			doc.Status,
			doc.SizeBytes,
			doc.Pages,
			doc.SourcePath,
			key,
			sqlmock.AnyArg(), // analysis_data json
			doc.NeedsReview,
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateDefaultsTypeAndStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	doc := Document{
		ID:         "doc-2",
		UserID:     "user-1",
		FileName:   "scan.png",
		FileType:   "image/png",
		UploadedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			doc.ID,
			doc.UserID,
			doc.FileName,
			doc.FileType,
			"other",
			StatusPending,
			doc.SizeBytes,
			doc.Pages,
			nil, // source_path
			nil, // s3_key
			nil, // analysis_data
			doc.NeedsReview,
			sqlmock.AnyArg(),
			nil, // processed_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDDistinguishesMissingFromForeign(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT .+ FROM documents WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(documentColumnNames()))

	if _, err := repo.GetByID(context.Background(), "missing", "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rows := sqlmock.NewRows(documentColumnNames()).
		AddRow("doc-3", "someone-else", "a.pdf", "application/pdf", "other", StatusCompleted,
			int64(10), 1, nil, nil, nil, false, time.Now().UTC(), nil)
	mock.ExpectQuery("SELECT .+ FROM documents WHERE id = \\$1").
		WithArgs("doc-3").
		WillReturnRows(rows)

	if _, err := repo.GetByID(context.Background(), "doc-3", "user-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoTransitionStatusGuardsInSQL(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	// Current row already moved on; the WHERE clause matches nothing.
	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusProcessing, sqlmock.AnyArg(), "doc-4", StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.TransitionStatus(context.Background(), "doc-4", StatusPending, StatusProcessing)
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if applied {
		t.Fatal("expected stale transition to be skipped")
	}

	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusCompleted, sqlmock.AnyArg(), "doc-4", StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err = repo.TransitionStatus(context.Background(), "doc-4", StatusProcessing, StatusCompleted)
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if !applied {
		t.Fatal("expected transition to apply")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoTransitionStatusRejectsInvalidPairWithoutSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	applied, err := repo.TransitionStatus(context.Background(), "doc-5", StatusCompleted, StatusProcessing)
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if applied {
		t.Fatal("terminal status must not regress")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkFailedSkipsTerminal(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusFailed, sqlmock.AnyArg(), "doc-6", StatusCompleted, StatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.MarkFailed(context.Background(), "doc-6")
	if err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if applied {
		t.Fatal("completed document must not be marked failed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByUserFiltersByStatus(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	rows := sqlmock.NewRows(documentColumnNames()).
		AddRow("doc-7", "user-1", "a.pdf", "application/pdf", "invoice", StatusCompleted,
			int64(10), 1, nil, nil, nil, false, now, now)
	mock.ExpectQuery("SELECT .+ FROM documents WHERE user_id = \\$1 AND status = \\$2 ORDER BY uploaded_at DESC LIMIT 20").
		WithArgs("user-1", StatusCompleted).
		WillReturnRows(rows)

	docs, err := repo.ListByUser(context.Background(), "user-1", StatusCompleted, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-7" {
		t.Fatalf("unexpected result: %+v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func documentColumnNames() []string {
	return []string{
		"id", "user_id", "file_name", "file_type", "document_type", "status",
		"size_bytes", "pages", "source_path", "s3_key", "analysis_data",
		"needs_review", "uploaded_at", "processed_at",
	}
}
