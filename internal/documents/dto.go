package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID   string        `json:"documentId"`
	FileName     string        `json:"fileName"`
	FileType     string        `json:"fileType"`
	DocumentType string        `json:"documentType"`
	Status       string        `json:"status"`
	SizeBytes    int64         `json:"sizeBytes"`
	Pages        int           `json:"pages"`
	NeedsReview  bool          `json:"needsReview"`
	AnalysisData *AnalysisData `json:"analysisData,omitempty"`
	UploadedAt   time.Time     `json:"uploadedAt"`
	ProcessedAt  *time.Time    `json:"processedAt,omitempty"`
}

// DocumentListItem omits the analysis payload to keep list responses small.
type DocumentListItem struct {
	DocumentID   string     `json:"documentId"`
	FileName     string     `json:"fileName"`
	DocumentType string     `json:"documentType"`
	Status       string     `json:"status"`
	SizeBytes    int64      `json:"sizeBytes"`
	Pages        int        `json:"pages"`
	NeedsReview  bool       `json:"needsReview"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	ProcessedAt  *time.Time `json:"processedAt,omitempty"`
}

// ReprocessResponse acknowledges a queued reprocessing job.
type ReprocessResponse struct {
	JobID      string `json:"jobId"`
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:   doc.ID,
		FileName:     doc.FileName,
		FileType:     doc.FileType,
		DocumentType: doc.DocumentType,
		Status:       doc.Status,
		SizeBytes:    doc.SizeBytes,
		Pages:        doc.Pages,
		NeedsReview:  doc.NeedsReview,
		AnalysisData: doc.AnalysisData,
		UploadedAt:   doc.UploadedAt,
		ProcessedAt:  doc.ProcessedAt,
	}
}

func toListItem(doc Document) DocumentListItem {
	return DocumentListItem{
		DocumentID:   doc.ID,
		FileName:     doc.FileName,
		DocumentType: doc.DocumentType,
		Status:       doc.Status,
		SizeBytes:    doc.SizeBytes,
		Pages:        doc.Pages,
		NeedsReview:  doc.NeedsReview,
		UploadedAt:   doc.UploadedAt,
		ProcessedAt:  doc.ProcessedAt,
	}
}
