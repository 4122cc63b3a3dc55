package documents

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"findocs-backend/internal/docparse"
	"findocs-backend/internal/enrich"
	"findocs-backend/internal/extract"
	"findocs-backend/internal/shared/metrics"
	"findocs-backend/internal/shared/storage/object"
	"findocs-backend/internal/shared/telemetry"
)

// TextExtractor pulls a text layer out of a file on disk.
type TextExtractor interface {
	Extract(ctx context.Context, path, mimeType, fileName string) (extract.Result, error)
}

// Service contains business logic for documents.
type Service struct {
	Repo      Repo
	Store     object.ObjectStore
	Extractor TextExtractor
}

// Intake runs the full pipeline for a freshly uploaded file: extract text,
// classify and parse fields, enrich, upload the original to the object store,
// and persist the resulting record. tmpPath is removed before Intake returns,
// on every path.
func (s *Service) Intake(ctx context.Context, userID, fileName, mimeType string, sizeBytes int64, tmpPath string) (Document, error) {
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			telemetry.Warn("intake.tmp_cleanup_failed", map[string]any{"path": tmpPath, "error": err.Error()})
		}
	}()

	metrics.IncUploadReceived()
	start := time.Now()

	result, extractErr := s.Extractor.Extract(ctx, tmpPath, mimeType, fileName)
	metrics.ObserveExtractionDurationMs(float64(time.Since(start).Milliseconds()))

	status := StatusCompleted
	if extractErr != nil || result.Text == "" {
		status = StatusFailed
	}

	docType := docparse.Classify("", fileName)
	var analysis *AnalysisData
	if extractErr == nil && result.Text != "" {
		parsed := docparse.Parse(result.Text, fileName)
		docType = parsed.Type
		analysis = &AnalysisData{
			Summary:  parsed.Summary,
			Preview:  parsed.Preview,
			FullText: parsed.FullText,
		}
		enrichment, err := enrich.Enrich(result.Text, parsed.Summary)
		if err != nil {
			telemetry.Warn("intake.enrich_failed", map[string]any{"file_name": fileName, "error": err.Error()})
		} else {
			analysis.Period = enrichment.Period
			analysis.Transactions = enrichment.Transactions
			analysis.Validations = enrichment.Validations
		}
	} else if extractErr != nil {
		telemetry.Error("intake.extract_failed", map[string]any{"file_name": fileName, "error": extractErr.Error()})
	}

	// A failed or pageless extraction still records at least one page.
	pages := result.Pages
	if pages < 1 {
		pages = 1
	}

	var s3Key *string
	if key, err := s.uploadOriginal(ctx, userID, fileName, tmpPath); err != nil {
		telemetry.Error("intake.store_failed", map[string]any{"file_name": fileName, "error": err.Error()})
	} else {
		s3Key = &key
	}

	now := time.Now().UTC()
	doc := Document{
		ID:           uuid.NewString(),
		UserID:       userID,
		FileName:     fileName,
		FileType:     mimeType,
		DocumentType: docType,
		Status:       status,
		SizeBytes:    sizeBytes,
		Pages:        pages,
		SourcePath:   fileName,
		S3Key:        s3Key,
		AnalysisData: analysis,
		NeedsReview:  needsReview(status, analysis),
		UploadedAt:   now,
		ProcessedAt:  &now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		metrics.IncUploadFailed()
		return Document{}, err
	}

	if status == StatusCompleted {
		metrics.IncUploadCompleted()
	} else {
		metrics.IncUploadFailed()
	}
	telemetry.Info("intake.complete", map[string]any{
		"document_id":   doc.ID,
		"document_type": doc.DocumentType,
		"status":        doc.Status,
		"pages":         doc.Pages,
		"needs_review":  doc.NeedsReview,
	})
	return doc, nil
}

// needsReview is true when processing failed or no total could be parsed.
func needsReview(status string, analysis *AnalysisData) bool {
	if status == StatusFailed {
		return true
	}
	return analysis == nil || analysis.Summary.Total == nil
}

func (s *Service) uploadOriginal(ctx context.Context, userID, fileName, tmpPath string) (string, error) {
	f, err := os.Open(tmpPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key, _, _, err := s.Store.Save(ctx, userID, fileName, f)
	if err != nil {
		return "", err
	}
	return key, nil
}

// Reverify is the background stage run for queued documents: it confirms the
// stored original is still retrievable end to end. The queue applies status
// transitions from the events it emits around this call.
func (s *Service) Reverify(ctx context.Context, documentID string) error {
	doc, err := s.Repo.GetForProcessing(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.S3Key == nil {
		return errors.New("document has no stored original")
	}
	rc, err := s.Store.Open(ctx, *doc.S3Key)
	if err != nil {
		return err
	}
	defer rc.Close()

	n, err := io.Copy(io.Discard, rc)
	if err != nil {
		return err
	}
	telemetry.Info("reverify.complete", map[string]any{
		"document_id": documentID,
		"bytes":       n,
	})
	return nil
}

// Get returns a single document scoped to the requesting user.
func (s *Service) Get(ctx context.Context, id, userID string) (Document, error) {
	if id == "" || userID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, id, userID)
}

// List returns the user's documents, newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID, status string, limit int) ([]Document, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	if status != "" && !ValidStatus(status) {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, status, limit)
}

// Download opens the stored original for a document the user owns.
func (s *Service) Download(ctx context.Context, id, userID string) (Document, io.ReadCloser, error) {
	doc, err := s.Repo.GetByID(ctx, id, userID)
	if err != nil {
		return Document{}, nil, err
	}
	if doc.S3Key == nil {
		return Document{}, nil, ErrNotFound
	}
	rc, err := s.Store.Open(ctx, *doc.S3Key)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, rc, nil
}
