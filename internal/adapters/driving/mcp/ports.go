package mcp

import (
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval assembles grounding context for a question.
	Retrieval driving.RetrievalService

	// Status reports document processing state.
	Status driving.StatusService

	// Document lists documents and their chunks.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// Status and Document are optional; their tools and resources are
	// registered only when set.
	return nil
}
