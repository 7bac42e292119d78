package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

func TestDocumentCmd_Use(t *testing.T) {
	assert.Equal(t, "document", documentCmd.Use)
}

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(documentCmd.Commands()))
	for _, cmd := range documentCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"list", "get", "chunks", "delete", "reprocess"}, names)
}

func TestDocumentGetCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("document", "get")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestDocumentListCmd_Filters(t *testing.T) {
	var got domain.DocumentFilter
	services := testServices()
	services.Document = &MockDocumentService{
		ListFunc: func(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
			got = filter
			return []domain.Document{testDocument()}, nil
		},
	}
	cleanup := useServices(services)
	defer cleanup()

	out, err := execute("document", "list", "-m", "bio-101", "-t", "teacher-1", "-s", "indexed")

	require.NoError(t, err)
	assert.Equal(t, "bio-101", got.ModuleID)
	assert.Equal(t, "teacher-1", got.TeacherID)
	assert.Equal(t, []domain.ProcessingStatus{domain.StatusIndexed}, got.Statuses)
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "Cell Biology")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestDocumentListCmd_UnknownStatus(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("document", "list", "-s", "done")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestDocumentListCmd_Empty(t *testing.T) {
	services := testServices()
	services.Document = &MockDocumentService{
		ListFunc: func(context.Context, domain.DocumentFilter) ([]domain.Document, error) { return nil, nil },
	}
	cleanup := useServices(services)
	defer cleanup()

	out, err := execute("document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
}

func TestDocumentListCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("document", "list", "--json")

	require.NoError(t, err)
	var docs []documentJSON
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "bio-101", docs[0].ModuleID)
	assert.Equal(t, "2026-09-01T10:00:00Z", docs[0].UploadedAt)
}

func TestDocumentGetCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("document", "get", "doc-7")

	require.NoError(t, err)
	assert.Contains(t, out, "Document: doc-7")
	assert.Contains(t, out, "Module:    bio-101")
	assert.Contains(t, out, "chunk_count: 4")
}

func TestDocumentGetCmd_NotFound(t *testing.T) {
	services := testServices()
	services.Document = &MockDocumentService{
		GetFunc: func(context.Context, string) (*domain.Document, error) { return nil, domain.ErrNotFound },
	}
	cleanup := useServices(services)
	defer cleanup()

	_, err := execute("document", "get", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentChunksCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("document", "chunks", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "chunk 0 [0:34] 34 chars")
	assert.Contains(t, out, "Osmosis is the diffusion of water.")
}

func TestDocumentDeleteCmd_Executes(t *testing.T) {
	var deleted string
	services := testServices()
	services.Document = &MockDocumentService{
		DeleteFunc: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	cleanup := useServices(services)
	defer cleanup()

	out, err := execute("document", "delete", "doc-1")

	require.NoError(t, err)
	assert.Equal(t, "doc-1", deleted)
	assert.Contains(t, out, "Document doc-1 deleted.")
}

func TestDocumentReprocessCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("document", "reprocess", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Reprocessing document doc-1...")
	assert.Contains(t, out, "indexed")
}

func TestDocumentReprocessCmd_StageFailure(t *testing.T) {
	services := testServices()
	services.Ingest = &MockIngestService{
		ReprocessFunc: func(_ context.Context, id string) (*domain.Document, error) {
			return &domain.Document{ID: id, Status: domain.StatusFailed}, domain.ErrExtractionFailed
		},
	}
	cleanup := useServices(services)
	defer cleanup()

	out, err := execute("document", "reprocess", "doc-1")

	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, out, "failed")
}

func TestDocumentCmds_NoService(t *testing.T) {
	cleanup := useServices(&Services{})
	defer cleanup()

	for _, args := range [][]string{
		{"document", "list"},
		{"document", "get", "x"},
		{"document", "chunks", "x"},
		{"document", "delete", "x"},
		{"document", "reprocess", "x"},
	} {
		_, err := execute(args...)
		assert.Error(t, err, args)
	}
}

func TestDocumentDeleteCmd_Error(t *testing.T) {
	services := testServices()
	services.Document = &MockDocumentService{
		DeleteFunc: func(context.Context, string) error { return errors.New("locked") },
	}
	cleanup := useServices(services)
	defer cleanup()

	_, err := execute("document", "delete", "doc-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}
