// Package postgres provides a PostgreSQL implementation of driven.Store
// built on gorm. Metadata and vectors are stored as jsonb.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
	"github.com/All-Pilot-Modules/ai-pilot/internal/vectors"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// Store is the PostgreSQL implementation of driven.Store.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	gormLog := gormLogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return New(db)
}

// New wraps an open gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&documentRow{}, &chunkRow{}, &embeddingRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, log: logger.With("store", "postgres")}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ==================== DocumentStore ====================

// SaveDocument stores or updates a document.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	row := documentToRow(doc)
	now := time.Now().UTC()
	if row.UploadedAt.IsZero() {
		row.UploadedAt = now
	}
	row.UpdatedAt = now

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "file_name", "file_type", "file_hash", "teacher_id", "module_id",
			"storage_path", "is_test_bank", "status", "metadata", "updated_at",
		}),
	}).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateDocument
	}
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return row.toDomain()
}

// FindByHash returns the document with the given uniqueness key.
func (s *Store) FindByHash(ctx context.Context, teacherID, moduleID, fileHash string) (*domain.Document, error) {
	if fileHash == "" {
		return nil, domain.ErrNotFound
	}
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("teacher_id = ? AND module_id = ? AND file_hash = ?", teacherID, moduleID, fileHash).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	return row.toDomain()
}

// ListDocuments returns documents matching filter, oldest first.
func (s *Store) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	q := s.db.WithContext(ctx).Model(&documentRow{})
	if filter.ModuleID != "" {
		q = q.Where("module_id = ?", filter.ModuleID)
	}
	if filter.TeacherID != "" {
		q = q.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.ExcludeTestBank {
		q = q.Where("is_test_bank = ?", false)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(filter.Statuses))
	}

	var rows []documentRow
	if err := q.Order("uploaded_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]domain.Document, 0, len(rows))
	for i := range rows {
		doc, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

// UpdateStatus replaces a document's status and metadata.
func (s *Store) UpdateStatus(
	ctx context.Context, id string, status domain.ProcessingStatus, metadata domain.ProcessingMetadata,
) error {
	res := s.db.WithContext(ctx).Model(&documentRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     string(status),
		"metadata":   toJSON(map[string]any(metadata)),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document with its chunks and embeddings.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&embeddingRow{}).Error; err != nil {
			return fmt.Errorf("delete embeddings: %w", err)
		}
		if err := tx.Where("document_id = ?", id).Delete(&chunkRow{}).Error; err != nil {
			return fmt.Errorf("delete chunks: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&documentRow{})
		if res.Error != nil {
			return fmt.Errorf("delete document: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// ==================== ChunkStore ====================

// ReplaceChunks deletes a document's chunks and embeddings and stores chunks.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&documentRow{}).Where("id = ?", documentID).Count(&n).Error; err != nil {
			return fmt.Errorf("check document: %w", err)
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		if err := tx.Where("document_id = ?", documentID).Delete(&embeddingRow{}).Error; err != nil {
			return fmt.Errorf("delete embeddings: %w", err)
		}
		if err := tx.Where("document_id = ?", documentID).Delete(&chunkRow{}).Error; err != nil {
			return fmt.Errorf("delete chunks: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}

		rows := make([]chunkRow, 0, len(chunks))
		for i := range chunks {
			c := &chunks[i]
			id := c.ID
			if id == "" {
				id = uuid.New().String()
			}
			rows = append(rows, chunkRow{
				ID:          id,
				DocumentID:  documentID,
				ChunkIndex:  c.Index,
				Text:        c.Text,
				Size:        c.Size,
				StartOffset: c.Start,
				EndOffset:   c.End,
				Metadata:    toJSON(c.Metadata),
			})
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
		return nil
	})
}

// GetChunks returns a document's chunks ordered by index.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	var rows []chunkRow
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	return chunksToDomain(rows)
}

// CountChunks returns the number of chunks for a document.
func (s *Store) CountChunks(ctx context.Context, documentID string) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&chunkRow{}).Where("document_id = ?", documentID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return int(n), nil
}

// ==================== EmbeddingStore ====================

// SaveEmbeddings stores a batch of embeddings atomically.
func (s *Store) SaveEmbeddings(ctx context.Context, embeddings []domain.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for i := range embeddings {
			e := &embeddings[i]
			if e.ChunkID == "" || len(e.Vector) == 0 {
				return domain.ErrInvalidInput
			}

			var n int64
			if err := tx.Model(&chunkRow{}).
				Where("id = ? AND document_id = ?", e.ChunkID, e.DocumentID).
				Count(&n).Error; err != nil {
				return fmt.Errorf("check chunk: %w", err)
			}
			if n == 0 {
				return domain.ErrNotFound
			}

			id := e.ID
			if id == "" {
				id = uuid.New().String()
			}
			createdAt := e.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			vec, err := json.Marshal(e.Vector)
			if err != nil {
				return fmt.Errorf("encode vector: %w", err)
			}

			row := embeddingRow{
				ID:         id,
				ChunkID:    e.ChunkID,
				DocumentID: e.DocumentID,
				Vector:     vec,
				Dimensions: len(e.Vector),
				Model:      e.Model,
				TokenCount: e.TokenCount,
				CreatedAt:  createdAt.UTC(),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "chunk_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"id", "vector", "dimensions", "model", "token_count", "created_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("save embedding for chunk %s: %w", e.ChunkID, err)
			}
		}
		return nil
	})
}

// CountEmbeddings returns the number of embeddings for a document.
func (s *Store) CountEmbeddings(ctx context.Context, documentID string) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&embeddingRow{}).Where("document_id = ?", documentID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return int(n), nil
}

// ChunksWithoutEmbeddings returns a document's chunks that have no embedding.
func (s *Store) ChunksWithoutEmbeddings(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	var rows []chunkRow
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Where("NOT EXISTS (SELECT 1 FROM embeddings e WHERE e.chunk_id = chunks.id)").
		Order("chunk_index ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("pending chunks: %w", err)
	}
	return chunksToDomain(rows)
}

// EmbeddingGaps returns documents in statuses whose chunks outnumber their embeddings.
func (s *Store) EmbeddingGaps(ctx context.Context, statuses []domain.ProcessingStatus) ([]domain.EmbeddingGap, error) {
	inner := s.db.Model(&documentRow{}).Select(`documents.id AS document_id,
		(SELECT COUNT(*) FROM chunks c WHERE c.document_id = documents.id) AS chunk_count,
		(SELECT COUNT(*) FROM embeddings e WHERE e.document_id = documents.id) AS embedding_count`)
	if len(statuses) > 0 {
		inner = inner.Where("documents.status IN ?", statusStrings(statuses))
	}

	var gaps []domain.EmbeddingGap
	err := s.db.WithContext(ctx).
		Table("(?) AS g", inner).
		Where("g.chunk_count > g.embedding_count").
		Order("g.document_id ASC").
		Scan(&gaps).Error
	if err != nil {
		return nil, fmt.Errorf("embedding gaps: %w", err)
	}
	return gaps, nil
}

// ==================== VectorIndex ====================

type vectorRow struct {
	chunkRow
	Vector []byte `gorm:"column:vector"`
}

// Search ranks the stored embeddings inside scope by cosine similarity.
func (s *Store) Search(
	ctx context.Context, query []float32, scope domain.SearchScope, limit int,
) ([]domain.ScoredChunk, error) {
	q := s.db.WithContext(ctx).
		Table("embeddings e").
		Select("c.*, e.vector").
		Joins("JOIN chunks c ON c.id = e.chunk_id").
		Joins("JOIN documents d ON d.id = c.document_id")
	if len(scope.DocumentIDs) > 0 {
		q = q.Where("c.document_id IN ?", scope.DocumentIDs)
	}
	if scope.ModuleID != "" {
		q = q.Where("d.module_id = ?", scope.ModuleID)
	}

	var rows []vectorRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}

	candidates := make([]vectors.Candidate, 0, len(rows))
	for i := range rows {
		chunk, err := rows[i].chunkRow.toDomain()
		if err != nil {
			return nil, err
		}
		var vec []float32
		if err := json.Unmarshal(rows[i].Vector, &vec); err != nil {
			s.log.Warn("skipping undecodable vector", "chunk_id", chunk.ID, "error", err)
			continue
		}
		candidates = append(candidates, vectors.Candidate{Chunk: chunk, Vector: vec})
	}
	return vectors.Rank(query, candidates, limit), nil
}

func chunksToDomain(rows []chunkRow) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func statusStrings(statuses []domain.ProcessingStatus) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
