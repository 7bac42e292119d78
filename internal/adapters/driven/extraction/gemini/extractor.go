// Package gemini provides an AI-assisted text extractor backed by Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// Ensure Extractor implements the interfaces.
var (
	_ driven.AssistedExtractor = (*Extractor)(nil)
	_ driven.PromptStoreAware  = (*Extractor)(nil)
)

// ErrNoText is returned when the model response carries no text.
var ErrNoText = errors.New("gemini: no text extracted")

// mimeTypes lists the formats Gemini accepts inline.
var mimeTypes = map[domain.FileType]string{
	domain.FileTypePDF:  "application/pdf",
	domain.FileTypeTXT:  "text/plain",
	domain.FileTypeMD:   "text/plain",
	domain.FileTypeHTML: "text/html",
}

// Config holds configuration for the Gemini extractor.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the generative model (default: domain.DefaultExtractorModel).
	Model string
}

// Extractor asks a Gemini model to transcribe document bytes.
// The client is created lazily on first use.
type Extractor struct {
	apiKey string
	model  string

	mu      sync.Mutex
	client  *genai.Client
	prompts driven.PromptStore
}

// New creates a new Gemini extractor.
func New(cfg Config) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = domain.DefaultExtractorModel
	}
	return &Extractor{apiKey: cfg.APIKey, model: cfg.Model}, nil
}

// SetPromptStore lets users override the extraction prompts.
func (e *Extractor) SetPromptStore(store driven.PromptStore) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prompts = store
}

// Supports reports whether fileType can be sent to the model.
func (e *Extractor) Supports(fileType domain.FileType) bool {
	_, ok := mimeTypes[fileType]
	return ok
}

// ExtractText returns the model's transcription of content.
func (e *Extractor) ExtractText(ctx context.Context, content []byte, fileType domain.FileType) (string, error) {
	mimeType, ok := mimeTypes[fileType]
	if !ok {
		return "", fmt.Errorf("gemini: %w: %s", domain.ErrUnsupportedFormat, fileType)
	}

	client, err := e.getClient(ctx)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(e.model)
	model.SetTemperature(0.1)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(e.prompt(driven.PromptExtractionSystem, domain.DefaultExtractionSystemPrompt))},
	}

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: content},
		genai.Text(e.prompt(driven.PromptExtractionUser, domain.DefaultExtractionUserPrompt)),
	)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Ping checks that the API key can see the configured model.
func (e *Extractor) Ping(ctx context.Context) error {
	client, err := e.getClient(ctx)
	if err != nil {
		return err
	}
	if _, err := client.GenerativeModel(e.model).Info(ctx); err != nil {
		return fmt.Errorf("gemini: model info: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

func (e *Extractor) getClient(ctx context.Context) (*genai.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		return e.client, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(e.apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	e.client = client
	return client, nil
}

// prompt loads name from the prompt store, falling back to def.
func (e *Extractor) prompt(name, def string) string {
	e.mu.Lock()
	store := e.prompts
	e.mu.Unlock()

	if store == nil {
		return def
	}
	p, err := store.Load(name)
	if err != nil || strings.TrimSpace(p) == "" {
		return def
	}
	return p
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
