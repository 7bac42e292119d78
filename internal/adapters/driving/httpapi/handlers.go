package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/services"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// maxUploadBytes caps multipart uploads.
const maxUploadBytes = 32 << 20

type handlers struct {
	ports *Ports
	log   *logger.Logger
}

// documentView is the JSON shape of a document.
type documentView struct {
	ID         string                    `json:"id"`
	Title      string                    `json:"title"`
	FileName   string                    `json:"file_name"`
	FileType   domain.FileType           `json:"file_type"`
	TeacherID  string                    `json:"teacher_id"`
	ModuleID   string                    `json:"module_id"`
	IsTestBank bool                      `json:"is_test_bank"`
	Status     domain.ProcessingStatus   `json:"status"`
	Metadata   domain.ProcessingMetadata `json:"metadata"`
	UploadedAt time.Time                 `json:"uploaded_at"`
	UpdatedAt  time.Time                 `json:"updated_at"`
}

func newDocumentView(d *domain.Document) documentView {
	return documentView{
		ID:         d.ID,
		Title:      d.Title,
		FileName:   d.FileName,
		FileType:   d.FileType,
		TeacherID:  d.TeacherID,
		ModuleID:   d.ModuleID,
		IsTestBank: d.IsTestBank,
		Status:     d.Status,
		Metadata:   d.Metadata,
		UploadedAt: d.UploadedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// chunkView is the JSON shape of a chunk.
type chunkView struct {
	ID       string         `json:"id"`
	Index    int            `json:"index"`
	Text     string         `json:"text"`
	Size     int            `json:"size"`
	Start    int            `json:"start"`
	End      int            `json:"end"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// processResponse reports a document after a pipeline run. A stage
// failure is recorded on the document and echoed in Error.
type processResponse struct {
	Document documentView `json:"document"`
	Queued   bool         `json:"queued,omitempty"`
	Error    *APIError    `json:"error,omitempty"`
}

func newProcessResponse(doc *domain.Document, err error) processResponse {
	resp := processResponse{Document: newDocumentView(doc)}
	if err != nil {
		resp.Error = &APIError{Message: err.Error(), Code: codeFor(err)}
	}
	return resp
}

// contextRequest is the body of POST /context.
type contextRequest struct {
	Question  string   `json:"question" binding:"required"`
	Answer    string   `json:"answer"`
	ModuleID  string   `json:"module_id" binding:"required"`
	MaxChunks int      `json:"max_chunks"`
	Threshold *float64 `json:"threshold"`
}

// contextResponse is the body returned by POST /context.
type contextResponse struct {
	*domain.ContextResult
	Summary string `json:"summary"`
}

func (h *handlers) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *handlers) uploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "no_file", errors.New("multipart field \"file\" is required"))
		return
	}
	if fh.Size > maxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Errorf("file exceeds %d bytes", maxUploadBytes))
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}

	isTestBank, err := formBool(c, "is_test_bank")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}

	doc, err := h.ports.Ingest.Ingest(c.Request.Context(), domain.Upload{
		Title:      c.PostForm("title"),
		FileName:   fh.Filename,
		FileType:   domain.FileType(c.PostForm("file_type")),
		Content:    content,
		TeacherID:  c.PostForm("teacher_id"),
		ModuleID:   c.PostForm("module_id"),
		IsTestBank: isTestBank,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.runPipeline(c, doc, http.StatusCreated, h.ports.Ingest.Process)
}

func (h *handlers) listDocuments(c *gin.Context) {
	filter := domain.DocumentFilter{
		ModuleID:  c.Query("module_id"),
		TeacherID: c.Query("teacher_id"),
	}
	for _, s := range c.QueryArray("status") {
		status := domain.ProcessingStatus(s)
		if !status.IsValid() {
			respondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("unknown status %q", s))
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	docs, err := h.ports.Document.List(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	views := make([]documentView, len(docs))
	for i := range docs {
		views[i] = newDocumentView(&docs[i])
	}
	c.JSON(http.StatusOK, gin.H{"documents": views, "count": len(views)})
}

func (h *handlers) getDocument(c *gin.Context) {
	doc, err := h.ports.Document.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDocumentView(doc))
}

func (h *handlers) deleteDocument(c *gin.Context) {
	if err := h.ports.Document.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) getStatus(c *gin.Context) {
	report, err := h.ports.Status.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handlers) getChunks(c *gin.Context) {
	chunks, err := h.ports.Document.Chunks(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	views := make([]chunkView, len(chunks))
	for i, ch := range chunks {
		views[i] = chunkView{
			ID:       ch.ID,
			Index:    ch.Index,
			Text:     ch.Text,
			Size:     ch.Size,
			Start:    ch.Start,
			End:      ch.End,
			Metadata: ch.Metadata,
		}
	}
	c.JSON(http.StatusOK, gin.H{"chunks": views, "count": len(views)})
}

func (h *handlers) processDocument(c *gin.Context) {
	doc, err := h.ports.Document.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	h.runPipeline(c, doc, http.StatusOK, h.ports.Ingest.Process)
}

func (h *handlers) reprocessDocument(c *gin.Context) {
	doc, err := h.ports.Ingest.Reprocess(c.Request.Context(), c.Param("id"))
	if doc == nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProcessResponse(doc, err))
}

func (h *handlers) embedDocument(c *gin.Context) {
	if h.ports.Embeddings == nil {
		respondDomainError(c, domain.ErrEmbeddingProviderUnavailable)
		return
	}

	id := c.Param("id")
	count, err := h.ports.Embeddings.EmbedDocument(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	report, err := h.ports.Status.Get(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": count, "status": report})
}

func (h *handlers) retryEmbeddings(c *gin.Context) {
	if h.async(c) {
		if err := h.ports.Dispatcher.EnqueueEmbeddingRetry(c.Request.Context()); err != nil {
			respondError(c, http.StatusServiceUnavailable, "queue_unavailable", err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"queued": true})
		return
	}

	if h.ports.Embeddings == nil {
		respondDomainError(c, domain.ErrEmbeddingProviderUnavailable)
		return
	}
	report, err := h.ports.Embeddings.RetryMissing(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handlers) retrieveContext(c *gin.Context) {
	var req contextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}

	result, err := h.ports.Retrieval.RetrieveContext(c.Request.Context(), domain.ContextRequest{
		Question:  req.Question,
		Answer:    req.Answer,
		ModuleID:  req.ModuleID,
		MaxChunks: req.MaxChunks,
		Threshold: req.Threshold,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, contextResponse{ContextResult: result, Summary: services.Summary(result)})
}

// runPipeline processes doc inline, or enqueues it when ?async=true.
func (h *handlers) runPipeline(
	c *gin.Context,
	doc *domain.Document,
	status int,
	process func(ctx context.Context, id string) (*domain.Document, error),
) {
	if h.async(c) {
		if err := h.ports.Dispatcher.EnqueueProcess(c.Request.Context(), doc.ID); err != nil {
			respondError(c, http.StatusServiceUnavailable, "queue_unavailable", err)
			return
		}
		resp := newProcessResponse(doc, nil)
		resp.Queued = true
		c.JSON(http.StatusAccepted, resp)
		return
	}

	processed, err := process(c.Request.Context(), doc.ID)
	if processed == nil {
		respondDomainError(c, err)
		return
	}
	if err != nil {
		h.log.Warn("pipeline stopped", "document_id", doc.ID, "status", processed.Status, "error", err)
	}
	c.JSON(status, newProcessResponse(processed, err))
}

// async reports whether the caller asked for background processing.
// Without a dispatcher the request is served inline.
func (h *handlers) async(c *gin.Context) bool {
	if h.ports.Dispatcher == nil {
		return false
	}
	v, err := strconv.ParseBool(c.DefaultQuery("async", "false"))
	return err == nil && v
}

func formBool(c *gin.Context, key string) (bool, error) {
	v := c.PostForm(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
