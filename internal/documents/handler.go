package documents

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"findocs-backend/internal/shared/server/middleware"
	"findocs-backend/internal/shared/server/respond"
	"findocs-backend/internal/shared/telemetry"
)

// Enqueuer accepts a document for background reprocessing.
type Enqueuer interface {
	Enqueue(documentID string) string
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	Queue          Enqueuer
	MaxUploadBytes int64
	TmpDir         string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, queue Enqueuer, maxUploadBytes int64, tmpDir string) *Handler {
	return &Handler{Svc: svc, Queue: queue, MaxUploadBytes: maxUploadBytes, TmpDir: tmpDir}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents/:id/download", h.download)
	rg.POST("/documents/:id/reprocess", h.reprocess)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	tmpPath, sizeBytes, err := h.spool(file)
	if err != nil {
		telemetry.Error("upload.spool_failed", map[string]any{"file_name": fileHeader.Filename, "error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to receive file", nil)
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	doc, err := h.Svc.Intake(c.Request.Context(), userID, fileHeader.Filename, mimeType, sizeBytes, tmpPath)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process document", nil)
		}
		return
	}

	c.Set("documentId", doc.ID)
	c.Set("documentStatus", doc.Status)
	respond.Created(c, toResponse(doc))
}

// spool copies the multipart part to a temp file so the pipeline can work
// against a path on disk. The service owns removal of the temp file.
func (h *Handler) spool(r io.Reader) (string, int64, error) {
	tmp, err := os.CreateTemp(h.TmpDir, "upload-*")
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, err
	}
	return tmp.Name(), n, nil
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	doc, err := h.Svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondFetchError(c, err)
		return
	}
	c.Set("documentId", doc.ID)
	c.Set("documentStatus", doc.Status)
	respond.OK(c, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	status := c.Query("status")
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer", nil)
			return
		}
		limit = parsed
	}

	docs, err := h.Svc.List(c.Request.Context(), userID, status, limit)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown status filter", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		}
		return
	}

	items := make([]DocumentListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toListItem(doc))
	}
	respond.OK(c, gin.H{"documents": items})
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	doc, rc, err := h.Svc.Download(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondFetchError(c, err)
		return
	}
	defer rc.Close()

	c.Set("documentId", doc.ID)
	contentType := doc.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.DataFromReader(http.StatusOK, doc.SizeBytes, contentType, rc, nil)
}

func (h *Handler) reprocess(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	doc, err := h.Svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondFetchError(c, err)
		return
	}

	jobID := h.Queue.Enqueue(doc.ID)
	if jobID == "" {
		respond.Error(c, http.StatusServiceUnavailable, "unavailable", "processing queue is shut down", nil)
		return
	}
	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusAccepted, ReprocessResponse{
		JobID:      jobID,
		DocumentID: doc.ID,
		Status:     "queued",
	})
}

func (h *Handler) respondFetchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "document belongs to another user", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
	}
}
