package extractors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects the extractor for a declared file type.
// When several extractors claim a type, the highest priority wins.
type Registry struct {
	mu     sync.RWMutex
	byType map[domain.FileType][]driven.Extractor
}

// NewRegistry creates a new, empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[domain.FileType][]driven.Extractor),
	}
}

// Register adds an extractor for every type it supports.
func (r *Registry) Register(extractor driven.Extractor) {
	if extractor == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ft := range extractor.SupportedTypes() {
		list := append(r.byType[ft], extractor)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byType[ft] = list
	}
}

// Extract runs the highest priority extractor for fileType.
func (r *Registry) Extract(ctx context.Context, fileType domain.FileType, content []byte) (*domain.Extraction, error) {
	extractor, ok := r.lookup(fileType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, fileType)
	}
	return extractor.Extract(ctx, content)
}

// SupportedTypes returns all registered file types, sorted.
func (r *Registry) SupportedTypes() []domain.FileType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.FileType, 0, len(r.byType))
	for ft := range r.byType {
		types = append(types, ft)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (r *Registry) lookup(fileType domain.FileType) (driven.Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byType[fileType]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}
