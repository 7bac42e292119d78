package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

type documentRow struct {
	ID          string         `gorm:"type:text;primaryKey"`
	Title       string         `gorm:"type:text;not null;default:''"`
	FileName    string         `gorm:"type:text;not null;default:''"`
	FileType    string         `gorm:"type:text;not null;default:''"`
	FileHash    string         `gorm:"type:text;not null;default:'';uniqueIndex:idx_documents_upload_key,where:file_hash <> ''"`
	TeacherID   string         `gorm:"type:text;not null;default:'';uniqueIndex:idx_documents_upload_key"`
	ModuleID    string         `gorm:"type:text;not null;default:'';uniqueIndex:idx_documents_upload_key;index:idx_documents_module_status"`
	StoragePath string         `gorm:"type:text;not null;default:''"`
	IsTestBank  bool           `gorm:"not null;default:false"`
	Status      string         `gorm:"type:text;not null;index:idx_documents_module_status"`
	Metadata    datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`
	UploadedAt  time.Time      `gorm:"not null;index"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

func (documentRow) TableName() string { return "documents" }

type chunkRow struct {
	ID          string         `gorm:"type:text;primaryKey"`
	DocumentID  string         `gorm:"type:text;not null;uniqueIndex:idx_chunks_document_index"`
	ChunkIndex  int            `gorm:"not null;uniqueIndex:idx_chunks_document_index"`
	Text        string         `gorm:"type:text;not null"`
	Size        int            `gorm:"not null"`
	StartOffset int            `gorm:"not null"`
	EndOffset   int            `gorm:"not null"`
	Metadata    datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`
}

func (chunkRow) TableName() string { return "chunks" }

type embeddingRow struct {
	ID         string         `gorm:"type:text;primaryKey"`
	ChunkID    string         `gorm:"type:text;not null;uniqueIndex"`
	DocumentID string         `gorm:"type:text;not null;index"`
	Vector     datatypes.JSON `gorm:"type:jsonb;not null"`
	Dimensions int            `gorm:"not null"`
	Model      string         `gorm:"type:text;not null;default:''"`
	TokenCount int            `gorm:"not null;default:0"`
	CreatedAt  time.Time      `gorm:"not null"`
}

func (embeddingRow) TableName() string { return "embeddings" }

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON([]byte(`{}`))
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(b)
}

func fromJSONMap(raw datatypes.JSON) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return out, nil
}

func documentToRow(doc *domain.Document) documentRow {
	return documentRow{
		ID:          doc.ID,
		Title:       doc.Title,
		FileName:    doc.FileName,
		FileType:    string(doc.FileType),
		FileHash:    doc.FileHash,
		TeacherID:   doc.TeacherID,
		ModuleID:    doc.ModuleID,
		StoragePath: doc.StoragePath,
		IsTestBank:  doc.IsTestBank,
		Status:      string(doc.Status),
		Metadata:    toJSON(map[string]any(doc.Metadata)),
		UploadedAt:  doc.UploadedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}
}

func (r *documentRow) toDomain() (*domain.Document, error) {
	md, err := fromJSONMap(r.Metadata)
	if err != nil {
		return nil, err
	}
	if md == nil {
		md = map[string]any{}
	}
	return &domain.Document{
		ID:          r.ID,
		Title:       r.Title,
		FileName:    r.FileName,
		FileType:    domain.FileType(r.FileType),
		FileHash:    r.FileHash,
		TeacherID:   r.TeacherID,
		ModuleID:    r.ModuleID,
		StoragePath: r.StoragePath,
		IsTestBank:  r.IsTestBank,
		Status:      domain.ProcessingStatus(r.Status),
		Metadata:    domain.ProcessingMetadata(md),
		UploadedAt:  r.UploadedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func (r *chunkRow) toDomain() (domain.Chunk, error) {
	md, err := fromJSONMap(r.Metadata)
	if err != nil {
		return domain.Chunk{}, err
	}
	return domain.Chunk{
		ID:         r.ID,
		DocumentID: r.DocumentID,
		Index:      r.ChunkIndex,
		Text:       r.Text,
		Size:       r.Size,
		Start:      r.StartOffset,
		End:        r.EndOffset,
		Metadata:   md,
	}, nil
}
