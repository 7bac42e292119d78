package chunking

import (
	"fmt"
	"sort"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// BuilderFunc creates a Chunker from generic config.
// Config is a map of strategy-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.Chunker, error)

// Registry maps strategy names to their builders.
// It allows dynamic construction of chunkers from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new, empty chunker registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a chunker builder to the registry.
// Name should be unique and match the chunker's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a chunker by name with the given config.
// Returns error if the strategy name is not registered.
func (r *Registry) Build(name string, cfg map[string]any) (driven.Chunker, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown chunking strategy: %s", name)
	}
	return builder(cfg)
}

// Has returns true if a strategy with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
