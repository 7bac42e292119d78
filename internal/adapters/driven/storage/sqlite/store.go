package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/vectors"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// timeLayout is how timestamps are stored in TEXT columns. Fixed width so
// that lexical order is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the SQLite implementation of driven.Store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.aipilot/data/aipilot.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".aipilot", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "aipilot.db")

	// WAL for concurrent readers; foreign keys must be set per connection
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== DocumentStore ====================

const documentColumns = `id, title, file_name, file_type, file_hash, teacher_id, module_id,
	storage_path, is_test_bank, status, metadata, uploaded_at, updated_at`

// SaveDocument stores or updates a document.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	metadataJSON, err := marshalMap(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	uploadedAt := doc.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = now
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			file_name = excluded.file_name,
			file_type = excluded.file_type,
			file_hash = excluded.file_hash,
			teacher_id = excluded.teacher_id,
			module_id = excluded.module_id,
			storage_path = excluded.storage_path,
			is_test_bank = excluded.is_test_bank,
			status = excluded.status,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.FileName, string(doc.FileType), doc.FileHash, doc.TeacherID, doc.ModuleID,
		doc.StoragePath, doc.IsTestBank, string(doc.Status), metadataJSON,
		uploadedAt.UTC().Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateDocument
		}
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// FindByHash returns the document with the given uniqueness key.
func (s *Store) FindByHash(ctx context.Context, teacherID, moduleID, fileHash string) (*domain.Document, error) {
	if fileHash == "" {
		return nil, domain.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE teacher_id = ? AND module_id = ? AND file_hash = ?
	`, teacherID, moduleID, fileHash)
	return scanDocument(row)
}

// ListDocuments returns documents matching filter, oldest first.
func (s *Store) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	var (
		where []string
		args  []any
	)
	if filter.ModuleID != "" {
		where = append(where, "module_id = ?")
		args = append(args, filter.ModuleID)
	}
	if filter.TeacherID != "" {
		where = append(where, "teacher_id = ?")
		args = append(args, filter.TeacherID)
	}
	if filter.ExcludeTestBank {
		where = append(where, "is_test_bank = 0")
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, st := range filter.Statuses {
			args = append(args, string(st))
		}
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY uploaded_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// UpdateStatus replaces a document's status and metadata.
func (s *Store) UpdateStatus(
	ctx context.Context, id string, status domain.ProcessingStatus, metadata domain.ProcessingMetadata,
) error {
	metadataJSON, err := marshalMap(metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, metadata = ?, updated_at = ? WHERE id = ?
	`, string(status), metadataJSON, time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return requireAffected(res)
}

// DeleteDocument removes a document with its chunks and embeddings.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireAffected(res)
}

// ==================== ChunkStore ====================

// ReplaceChunks deletes a document's chunks and embeddings and stores chunks.
// Chunks without an ID are assigned one.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE id = ?", documentID).Scan(&exists); err != nil {
		return fmt.Errorf("checking document: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, text, size, start_offset, end_offset, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		metadataJSON, err := marshalMap(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, id, documentID, c.Index, c.Text, c.Size, c.Start, c.End, metadataJSON); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

const chunkColumns = `c.id, c.document_id, c.chunk_index, c.text, c.size, c.start_offset, c.end_offset, c.metadata`

// GetChunks returns a document's chunks ordered by index.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM chunks c
		WHERE c.document_id = ? ORDER BY c.chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// CountChunks returns the number of chunks for a document.
func (s *Store) CountChunks(ctx context.Context, documentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE document_id = ?", documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// ==================== EmbeddingStore ====================

// SaveEmbeddings stores a batch of embeddings atomically.
func (s *Store) SaveEmbeddings(ctx context.Context, embeddings []domain.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (id, chunk_id, document_id, vector, dimensions, model, token_count, created_at)
		SELECT ?, c.id, c.document_id, ?, ?, ?, ?, ?
		FROM chunks c WHERE c.id = ? AND c.document_id = ?
		ON CONFLICT(chunk_id) DO UPDATE SET
			id = excluded.id,
			vector = excluded.vector,
			dimensions = excluded.dimensions,
			model = excluded.model,
			token_count = excluded.token_count,
			created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("preparing embedding insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range embeddings {
		e := &embeddings[i]
		if e.ChunkID == "" || len(e.Vector) == 0 {
			return domain.ErrInvalidInput
		}
		id := e.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		res, err := stmt.ExecContext(ctx, id, vectors.Encode(e.Vector), len(e.Vector), e.Model, e.TokenCount,
			createdAt.UTC().Format(timeLayout), e.ChunkID, e.DocumentID)
		if err != nil {
			return fmt.Errorf("inserting embedding for chunk %s: %w", e.ChunkID, err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing embeddings: %w", err)
	}
	return nil
}

// CountEmbeddings returns the number of embeddings for a document.
func (s *Store) CountEmbeddings(ctx context.Context, documentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings WHERE document_id = ?", documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// ChunksWithoutEmbeddings returns a document's chunks that have no embedding.
func (s *Store) ChunksWithoutEmbeddings(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM chunks c
		LEFT JOIN embeddings e ON e.chunk_id = c.id
		WHERE c.document_id = ? AND e.id IS NULL
		ORDER BY c.chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying pending chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// EmbeddingGaps returns documents in statuses whose chunks outnumber their embeddings.
func (s *Store) EmbeddingGaps(ctx context.Context, statuses []domain.ProcessingStatus) ([]domain.EmbeddingGap, error) {
	query := `
		SELECT d.id,
			(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id) AS chunk_count,
			(SELECT COUNT(*) FROM embeddings e WHERE e.document_id = d.id) AS embedding_count
		FROM documents d`
	var args []any
	if len(statuses) > 0 {
		query += " WHERE d.status IN (" + placeholders(len(statuses)) + ")"
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query = "SELECT id, chunk_count, embedding_count FROM (" + query +
		") WHERE chunk_count > embedding_count ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying embedding gaps: %w", err)
	}
	defer rows.Close()

	var gaps []domain.EmbeddingGap
	for rows.Next() {
		var g domain.EmbeddingGap
		if err := rows.Scan(&g.DocumentID, &g.ChunkCount, &g.EmbeddingCount); err != nil {
			return nil, fmt.Errorf("scanning embedding gap: %w", err)
		}
		gaps = append(gaps, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embedding gaps: %w", err)
	}
	return gaps, nil
}

// ==================== VectorIndex ====================

// Search ranks the stored embeddings inside scope by cosine similarity.
func (s *Store) Search(
	ctx context.Context, query []float32, scope domain.SearchScope, limit int,
) ([]domain.ScoredChunk, error) {
	var (
		where []string
		args  []any
	)
	if len(scope.DocumentIDs) > 0 {
		where = append(where, "c.document_id IN ("+placeholders(len(scope.DocumentIDs))+")")
		for _, id := range scope.DocumentIDs {
			args = append(args, id)
		}
	}
	if scope.ModuleID != "" {
		where = append(where, "d.module_id = ?")
		args = append(args, scope.ModuleID)
	}

	q := `
		SELECT ` + chunkColumns + `, e.vector
		FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		JOIN documents d ON d.id = c.document_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var candidates []vectors.Candidate
	for rows.Next() {
		var (
			c        domain.Chunk
			metadata string
			blob     []byte
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Text, &c.Size, &c.Start, &c.End, &metadata, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		if err := unmarshalMap(metadata, &c.Metadata); err != nil {
			return nil, err
		}
		vec, err := vectors.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding vector for chunk %s: %w", c.ID, err)
		}
		candidates = append(candidates, vectors.Candidate{Chunk: c, Vector: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return vectors.Rank(query, candidates, limit), nil
}

// ==================== Helper Functions ====================

type scanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a single document row.
func scanDocument(row scanner) (*domain.Document, error) {
	var (
		doc                   domain.Document
		fileType, status      string
		metadata              string
		uploadedAt, updatedAt string
	)
	err := row.Scan(&doc.ID, &doc.Title, &doc.FileName, &fileType, &doc.FileHash, &doc.TeacherID, &doc.ModuleID,
		&doc.StoragePath, &doc.IsTestBank, &status, &metadata, &uploadedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.FileType = domain.FileType(fileType)
	doc.Status = domain.ProcessingStatus(status)
	var md map[string]any
	if err := unmarshalMap(metadata, &md); err != nil {
		return nil, err
	}
	doc.Metadata = domain.ProcessingMetadata(md)
	if doc.Metadata == nil {
		doc.Metadata = domain.ProcessingMetadata{}
	}
	doc.UploadedAt = parseTime(uploadedAt)
	doc.UpdatedAt = parseTime(updatedAt)
	return &doc, nil
}

func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			c        domain.Chunk
			metadata string
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Text, &c.Size, &c.Start, &c.End, &metadata); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := unmarshalMap(metadata, &c.Metadata); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

func marshalMap[M ~map[string]any](m M) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalMap decodes a JSON object. Numbers decode as float64, which
// domain.ProcessingMetadata.Int accepts.
func unmarshalMap(data string, out *map[string]any) error {
	if data == "" || data == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
