package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// sizedChunker is implemented by chunkers that expose their window parameters.
type sizedChunker interface {
	Size() int
	Overlap() int
}

// IngestService takes uploads through extraction, chunking and embedding.
type IngestService struct {
	store      driven.Store
	files      driven.FileStore
	extraction driving.ExtractionService
	chunker    driven.Chunker
	status     *StatusService
	embeddings *EmbeddingGenerator
	now        func() time.Time
}

// NewIngestService creates a new ingest service.
// A nil embeddings generator stops the pipeline at StatusChunked.
func NewIngestService(
	store driven.Store,
	files driven.FileStore,
	extraction driving.ExtractionService,
	chunker driven.Chunker,
	status *StatusService,
	embeddings *EmbeddingGenerator,
) *IngestService {
	return &IngestService{
		store:      store,
		files:      files,
		extraction: extraction,
		chunker:    chunker,
		status:     status,
		embeddings: embeddings,
		now:        time.Now,
	}
}

// Ingest stores the upload's bytes and creates a document in StatusUploaded.
func (s *IngestService) Ingest(ctx context.Context, upload domain.Upload) (*domain.Document, error) {
	// 1. Validate the upload
	if len(upload.Content) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	if upload.ModuleID == "" {
		return nil, fmt.Errorf("%w: module is required", domain.ErrInvalidInput)
	}
	fileType := upload.FileType
	if fileType == "" {
		fileType = domain.FileTypeFromName(upload.FileName)
	}
	if !slices.Contains(s.extraction.SupportedTypes(), fileType) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, fileType)
	}

	// 2. Reject a file the teacher already uploaded to this module
	sum := sha256.Sum256(upload.Content)
	hash := hex.EncodeToString(sum[:])
	existing, err := s.store.FindByHash(ctx, upload.TeacherID, upload.ModuleID, hash)
	switch {
	case err == nil:
		return existing, fmt.Errorf("%w: same file as document %s", domain.ErrDuplicateDocument, existing.ID)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find by hash: %w", err)
	}

	// 3. Keep the original bytes for (re)processing
	id := uuid.New().String()
	storagePath := upload.StoragePath
	if storagePath == "" {
		storagePath, err = s.files.Put(ctx, path.Join(id, path.Base(upload.FileName)), upload.Content)
		if err != nil {
			return nil, fmt.Errorf("store file: %w", err)
		}
	}

	// 4. Create the document
	now := s.now()
	title := strings.TrimSpace(upload.Title)
	if title == "" {
		title = strings.TrimSuffix(path.Base(upload.FileName), path.Ext(upload.FileName))
	}
	metadata := domain.ProcessingMetadata{"file_size": len(upload.Content)}.Apply(domain.UploadedStage{}, now)

	doc := &domain.Document{
		ID:          id,
		Title:       title,
		FileName:    upload.FileName,
		FileType:    fileType,
		FileHash:    hash,
		TeacherID:   upload.TeacherID,
		ModuleID:    upload.ModuleID,
		StoragePath: storagePath,
		IsTestBank:  upload.IsTestBank,
		Status:      domain.StatusUploaded,
		Metadata:    metadata,
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		if upload.StoragePath == "" {
			_ = s.files.Delete(ctx, storagePath)
		}
		return nil, fmt.Errorf("save document: %w", err)
	}

	logger.Info("Uploaded %s as %s (%s, %d bytes)", upload.FileName, id, fileType, len(upload.Content))
	return doc, nil
}

// Process runs the remaining pipeline stages for a document.
// A stage failure is recorded on the document, which is returned together
// with the wrapped error.
func (s *IngestService) Process(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	logger.Section("Processing " + doc.Title)

	switch doc.Status {
	case domain.StatusIndexed:
		logger.Debug("Document %s is already indexed", doc.ID)
		return doc, nil
	case domain.StatusFailed:
		return doc, &domain.TransitionError{From: doc.Status, To: domain.StatusExtracting}
	case domain.StatusChunked, domain.StatusEmbedding, domain.StatusEmbedded:
		return s.embed(ctx, doc)
	}

	// 1. Extract
	text, err := s.extract(ctx, doc)
	if err != nil {
		return s.fail(ctx, doc, err)
	}

	// 2. Chunk
	if err := s.chunk(ctx, doc, text); err != nil {
		return s.fail(ctx, doc, err)
	}

	// 3. Embed
	return s.embed(ctx, doc)
}

// Reprocess resets an indexed or failed document and runs the pipeline again.
func (s *IngestService) Reprocess(ctx context.Context, documentID string) (*domain.Document, error) {
	if _, err := s.status.Retry(ctx, documentID, domain.StatusUploaded); err != nil {
		return nil, err
	}
	return s.Process(ctx, documentID)
}

// extract reads the stored bytes and extracts their text.
// Documents that were interrupted after extraction are extracted again
// without moving their status back.
func (s *IngestService) extract(ctx context.Context, doc *domain.Document) (string, error) {
	if doc.Status == domain.StatusUploaded {
		if _, err := s.status.Advance(ctx, doc.ID, domain.ExtractingStage{}); err != nil {
			return "", err
		}
		doc.Status = domain.StatusExtracting
	}

	content, err := s.files.Get(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	extraction, err := s.extraction.Extract(ctx, content, doc.FileType, domain.ExtractOptions{Assisted: doc.IsTestBank})
	if err != nil {
		return "", err
	}
	charCount := len([]rune(extraction.Text))
	logger.Debug("Extracted %d characters from %s (%s)", charCount, doc.ID, extraction.Method)

	if doc.Status == domain.StatusExtracting {
		if _, err := s.status.Advance(ctx, doc.ID, domain.ExtractedStage{
			CharCount: charCount,
			Method:    extraction.Method,
			Details:   extraction.Metadata,
		}); err != nil {
			return "", err
		}
		doc.Status = domain.StatusExtracted
	}
	return extraction.Text, nil
}

// chunk splits text and replaces the document's chunk set.
func (s *IngestService) chunk(ctx context.Context, doc *domain.Document, text string) error {
	if doc.Status == domain.StatusExtracted {
		stage := domain.ChunkingStage{Strategy: s.chunker.Name()}
		if sc, ok := s.chunker.(sizedChunker); ok {
			stage.Size = sc.Size()
			stage.Overlap = sc.Overlap()
		}
		if _, err := s.status.Advance(ctx, doc.ID, stage); err != nil {
			return err
		}
		doc.Status = domain.StatusChunking
	}

	chunks, err := s.chunker.Chunk(doc.ID, text)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}
	if err := s.store.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}

	stage := domain.ChunkedStage{ChunkCount: len(chunks)}
	for i := range chunks {
		stage.TotalChars += chunks[i].Size
	}
	if len(chunks) > 0 {
		stage.AvgChunkSize = stage.TotalChars / len(chunks)
	}
	if _, err := s.status.Advance(ctx, doc.ID, stage); err != nil {
		return err
	}
	doc.Status = domain.StatusChunked

	logger.Info("Document %s split into %d chunks", doc.ID, len(chunks))
	return nil
}

// embed runs the embedding generator and returns the resulting document.
func (s *IngestService) embed(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if s.embeddings == nil {
		logger.Warn("No embedding provider configured; %s stays %s", doc.ID, doc.Status)
		return s.reload(ctx, doc)
	}

	if _, err := s.embeddings.EmbedDocument(ctx, doc.ID); err != nil {
		current, _ := s.reload(ctx, doc)
		return current, fmt.Errorf("embed: %w", err)
	}
	return s.reload(ctx, doc)
}

// fail records a stage failure and returns the failed document with err.
func (s *IngestService) fail(ctx context.Context, doc *domain.Document, err error) (*domain.Document, error) {
	failed, failErr := s.status.Fail(context.WithoutCancel(ctx), doc.ID, doc.FileType, err)
	if failErr != nil {
		logger.Error("Could not record failure for %s: %v", doc.ID, failErr)
		return doc, err
	}
	return failed, err
}

func (s *IngestService) reload(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	current, err := s.store.GetDocument(ctx, doc.ID)
	if err != nil {
		return doc, fmt.Errorf("get document: %w", err)
	}
	return current, nil
}
