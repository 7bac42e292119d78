// Package tui provides an interactive status board for uploaded course
// material. It implements a driving adapter following hexagonal
// architecture principles.
package tui

import (
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Document lists, shows and deletes documents.
	Document driving.DocumentService

	// Status provides processing status reports. Optional.
	Status driving.StatusService

	// Ingest reprocesses documents. Optional.
	Ingest driving.IngestService

	// Retrieval answers questions in the ask view. Optional.
	Retrieval driving.RetrievalService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
