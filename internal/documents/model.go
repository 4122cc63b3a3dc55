package documents

import (
	"time"

	"findocs-backend/internal/docparse"
	"findocs-backend/internal/enrich"
)

// Document represents an uploaded financial document owned by a user.
type Document struct {
	ID           string
	UserID       string
	FileName     string
	FileType     string
	DocumentType string
	Status       string
	SizeBytes    int64
	Pages        int
	SourcePath   string
	S3Key        *string
	AnalysisData *AnalysisData
	NeedsReview  bool
	UploadedAt   time.Time
	ProcessedAt  *time.Time
}

// AnalysisData is the extraction payload attached to a processed document.
// Period, Transactions, and Validations are only present when the enrichment
// pass succeeded; consumers check for presence rather than probing a blob.
type AnalysisData struct {
	Summary      docparse.Summary     `json:"summary"`
	Preview      []string             `json:"preview"`
	FullText     string               `json:"fullText"`
	Period       *enrich.Period       `json:"period,omitempty"`
	Transactions []enrich.Transaction `json:"transactions,omitempty"`
	Validations  []enrich.Validation  `json:"validations,omitempty"`
}
