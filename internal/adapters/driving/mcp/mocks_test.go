package mcp

import (
	"context"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result  *domain.ContextResult
	err     error
	request domain.ContextRequest
}

func (m *mockRetrievalService) RetrieveContext(
	_ context.Context,
	req domain.ContextRequest,
) (*domain.ContextResult, error) {
	m.request = req
	return m.result, m.err
}

// mockStatusService is a mock implementation of driving.StatusService.
type mockStatusService struct {
	report *domain.StatusReport
	err    error
}

func (m *mockStatusService) Get(_ context.Context, _ string) (*domain.StatusReport, error) {
	return m.report, m.err
}

func (m *mockStatusService) Retry(
	_ context.Context,
	_ string,
	_ domain.ProcessingStatus,
) (*domain.Document, error) {
	return nil, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	chunks    []domain.Chunk
	filter    domain.DocumentFilter
	err       error
}

func (m *mockDocumentService) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	m.filter = filter
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}
