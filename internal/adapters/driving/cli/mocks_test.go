package cli

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// MockIngestService implements driving.IngestService for CLI tests.
type MockIngestService struct {
	IngestFunc    func(ctx context.Context, upload domain.Upload) (*domain.Document, error)
	ProcessFunc   func(ctx context.Context, id string) (*domain.Document, error)
	ReprocessFunc func(ctx context.Context, id string) (*domain.Document, error)
}

func (m *MockIngestService) Ingest(ctx context.Context, upload domain.Upload) (*domain.Document, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, upload)
	}
	return &domain.Document{ID: "doc-new", FileName: upload.FileName, ModuleID: upload.ModuleID, Status: domain.StatusUploaded}, nil
}

func (m *MockIngestService) Process(ctx context.Context, id string) (*domain.Document, error) {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, id)
	}
	return &domain.Document{ID: id, Status: domain.StatusIndexed}, nil
}

func (m *MockIngestService) Reprocess(ctx context.Context, id string) (*domain.Document, error) {
	if m.ReprocessFunc != nil {
		return m.ReprocessFunc(ctx, id)
	}
	return &domain.Document{ID: id, Status: domain.StatusIndexed}, nil
}

// MockDocumentService implements driving.DocumentService for CLI tests.
type MockDocumentService struct {
	ListFunc   func(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
	GetFunc    func(ctx context.Context, id string) (*domain.Document, error)
	ChunksFunc func(ctx context.Context, id string) ([]domain.Chunk, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (m *MockDocumentService) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []domain.Document{testDocument()}, nil
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	doc := testDocument()
	doc.ID = id
	return &doc, nil
}

func (m *MockDocumentService) Chunks(ctx context.Context, id string) ([]domain.Chunk, error) {
	if m.ChunksFunc != nil {
		return m.ChunksFunc(ctx, id)
	}
	return []domain.Chunk{
		{ID: "c1", DocumentID: id, Index: 0, Text: "Osmosis is the diffusion of water.", Size: 34, Start: 0, End: 34},
	}, nil
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockStatusService implements driving.StatusService for CLI tests.
type MockStatusService struct {
	GetFunc   func(ctx context.Context, id string) (*domain.StatusReport, error)
	RetryFunc func(ctx context.Context, id string, to domain.ProcessingStatus) (*domain.Document, error)
}

func (m *MockStatusService) Get(ctx context.Context, id string) (*domain.StatusReport, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &domain.StatusReport{
		DocumentID: id,
		Status:     domain.StatusIndexed,
		Metadata:   domain.ProcessingMetadata{"chunk_count": 4, "embedding_count": 4},
		IsReady:    true,
		UploadedAt: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}, nil
}

func (m *MockStatusService) Retry(ctx context.Context, id string, to domain.ProcessingStatus) (*domain.Document, error) {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, id, to)
	}
	if to == "" {
		to = domain.StatusUploaded
	}
	return &domain.Document{ID: id, Status: to}, nil
}

// MockExtractionService implements driving.ExtractionService for CLI tests.
type MockExtractionService struct {
	ExtractFunc func(ctx context.Context, content []byte, ft domain.FileType, opts domain.ExtractOptions) (*domain.Extraction, error)
}

func (m *MockExtractionService) Extract(
	ctx context.Context, content []byte, ft domain.FileType, opts domain.ExtractOptions,
) (*domain.Extraction, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, content, ft, opts)
	}
	return &domain.Extraction{Text: string(content), Method: "standard"}, nil
}

func (m *MockExtractionService) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeTXT}
}

// MockEmbeddingGenerator implements driving.EmbeddingGenerator for CLI tests.
type MockEmbeddingGenerator struct {
	EmbedFunc func(ctx context.Context, id string) (int, error)
	RetryFunc func(ctx context.Context) (*domain.RetryReport, error)
}

func (m *MockEmbeddingGenerator) EmbedDocument(ctx context.Context, id string) (int, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, id)
	}
	return 4, nil
}

func (m *MockEmbeddingGenerator) RetryMissing(ctx context.Context) (*domain.RetryReport, error) {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx)
	}
	return &domain.RetryReport{Checked: 2, Created: 5, Completed: []string{"doc-1"}, Incomplete: []string{"doc-2"}}, nil
}

// MockRetrievalService implements driving.RetrievalService for CLI tests.
type MockRetrievalService struct {
	RetrieveFunc func(ctx context.Context, req domain.ContextRequest) (*domain.ContextResult, error)
}

func (m *MockRetrievalService) RetrieveContext(ctx context.Context, req domain.ContextRequest) (*domain.ContextResult, error) {
	if m.RetrieveFunc != nil {
		return m.RetrieveFunc(ctx, req)
	}
	return &domain.ContextResult{
		HasContext:       true,
		Chunks:           []domain.RetrievedChunk{{ChunkID: "c1", DocumentTitle: "Cell Biology", Text: "Osmosis.", Similarity: 0.8}},
		Sources:          []string{"Cell Biology"},
		FormattedContext: "[Cell Biology]\nOsmosis.",
	}, nil
}

// MockSettingsService implements driving.SettingsService for CLI tests.
type MockSettingsService struct {
	Settings    domain.AppSettings
	SetFunc     func(key, value string) error
	ValidateErr error
	PingErr     error

	Provider domain.AIProvider
	Model    string
	APIKey   string
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.Settings
	return &s, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.Settings = *settings
	return nil
}

func (m *MockSettingsService) Set(key, value string) error {
	if m.SetFunc != nil {
		return m.SetFunc(key, value)
	}
	return nil
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.Provider, m.Model, m.APIKey = provider, model, apiKey
	return nil
}

func (m *MockSettingsService) Validate() error { return m.ValidateErr }

func (m *MockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *MockSettingsService) ValidateEmbeddingConfig() error { return m.PingErr }

// MockDispatcher implements driven.TaskDispatcher for CLI tests.
type MockDispatcher struct {
	Processed []string
	Retries   int
}

func (m *MockDispatcher) EnqueueProcess(_ context.Context, id string) error {
	m.Processed = append(m.Processed, id)
	return nil
}

func (m *MockDispatcher) EnqueueEmbeddingRetry(_ context.Context) error {
	m.Retries++
	return nil
}

func (m *MockDispatcher) Close() error { return nil }

func testDocument() domain.Document {
	return domain.Document{
		ID:         "doc-1",
		Title:      "Cell Biology",
		FileName:   "cells.pdf",
		FileType:   domain.FileTypePDF,
		TeacherID:  "teacher-1",
		ModuleID:   "bio-101",
		Status:     domain.StatusIndexed,
		Metadata:   domain.ProcessingMetadata{"chunk_count": 4},
		UploadedAt: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}
}

// testServices returns a full set of mock services.
func testServices() *Services {
	settings := domain.DefaultAppSettings()
	return &Services{
		Ingest:     &MockIngestService{},
		Document:   &MockDocumentService{},
		Status:     &MockStatusService{},
		Extraction: &MockExtractionService{},
		Embeddings: &MockEmbeddingGenerator{},
		Retrieval:  &MockRetrievalService{},
		Settings:   &MockSettingsService{Settings: settings},
	}
}

// setupTestServices installs mock services with terminal output and
// returns a cleanup that restores package state.
func setupTestServices() func() {
	return useServices(testServices())
}

// useServices installs s and returns a cleanup.
func useServices(s *Services) func() {
	SetServices(s)
	prevTerminal, prevStdin := stdoutIsTerminal, stdinIsTerminal
	stdoutIsTerminal = func() bool { return true }
	stdinIsTerminal = func() bool { return false }

	return func() {
		SetServices(&Services{})
		stdoutIsTerminal, stdinIsTerminal = prevTerminal, prevStdin
		jsonOutput = false
		ingestAsync, ingestTestBank, ingestDetectBank = false, false, false
		ingestTitle, ingestTeacher = "", ""
		listModule, listTeacher, listStatus = "", "", ""
		retryTo = ""
		embedAsync = false
		contextAnswer, contextMaxChunks, contextThreshold, contextChat = "", 0, 0, false
		contextCmd.Flags().Lookup("threshold").Changed = false
		extractType, extractAssisted = "", false
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
