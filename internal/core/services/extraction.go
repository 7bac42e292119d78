package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// ExtractionService turns file bytes into text.
// An assisted extractor, when configured, is tried first for requests
// that ask for it; any failure falls back to the registry.
type ExtractionService struct {
	registry driven.ExtractorRegistry
	assisted driven.AssistedExtractor
}

// NewExtractionService creates a new extraction service.
// The assisted extractor is optional (can be nil).
func NewExtractionService(registry driven.ExtractorRegistry, assisted driven.AssistedExtractor) *ExtractionService {
	return &ExtractionService{
		registry: registry,
		assisted: assisted,
	}
}

// Extract returns the text and structural metadata of content.
func (s *ExtractionService) Extract(
	ctx context.Context, content []byte, fileType domain.FileType, opts domain.ExtractOptions,
) (*domain.Extraction, error) {
	if !s.supports(fileType) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, fileType)
	}

	if opts.Assisted && s.assisted != nil {
		if result, ok := s.extractAssisted(ctx, content, fileType); ok {
			return result, nil
		}
	}

	result, err := s.registry.Extract(ctx, fileType, content)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) || errors.Is(err, domain.ErrExtractionFailed) {
			return nil, err
		}
		return nil, &domain.ExtractionError{FileType: fileType, Cause: err}
	}

	result.Method = domain.ExtractionStandard
	if result.Metadata == nil {
		result.Metadata = make(map[string]any)
	}
	result.Metadata["extraction_method"] = string(domain.ExtractionStandard)

	logger.Debug("Extracted %d characters from %s", len(result.Text), fileType)
	return result, nil
}

// SupportedTypes returns all file types that can be extracted.
func (s *ExtractionService) SupportedTypes() []domain.FileType {
	return s.registry.SupportedTypes()
}

// extractAssisted returns false when the assisted path produced nothing usable.
func (s *ExtractionService) extractAssisted(
	ctx context.Context, content []byte, fileType domain.FileType,
) (*domain.Extraction, bool) {
	text, err := s.assisted.ExtractText(ctx, content, fileType)
	if err != nil {
		logger.Debug("Assisted extraction failed for %s, using standard extractor: %v", fileType, err)
		return nil, false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		logger.Debug("Assisted extraction returned no text for %s, using standard extractor", fileType)
		return nil, false
	}

	logger.Info("Extracted %d characters from %s with AI assistance", len(text), fileType)
	return &domain.Extraction{
		Text:     text,
		Metadata: map[string]any{"extraction_method": string(domain.ExtractionAIAssisted)},
		Method:   domain.ExtractionAIAssisted,
	}, true
}

func (s *ExtractionService) supports(fileType domain.FileType) bool {
	for _, ft := range s.registry.SupportedTypes() {
		if ft == fileType {
			return true
		}
	}
	return false
}
