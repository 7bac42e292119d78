// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewDocuments lists documents and their processing status.
	ViewDocuments
	// ViewDocDetails shows a document's status report.
	ViewDocDetails
	// ViewDocContent shows a document's chunks.
	ViewDocContent
	// ViewAsk retrieves course material for a question.
	ViewAsk
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewDocuments:
		return "documents"
	case ViewDocDetails:
		return "doc_details"
	case ViewDocContent:
		return "doc_content"
	case ViewAsk:
		return "ask"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the documents matching the board filter.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected signals a document was selected for its chunks.
type DocumentSelected struct {
	Document domain.Document
}

// ChunksLoaded carries the chunks of a document.
type ChunksLoaded struct {
	DocumentID string
	Chunks     []domain.Chunk
	Err        error
}

// StatusLoaded carries a document's status report.
type StatusLoaded struct {
	DocumentID string
	Report     *domain.StatusReport
	Err        error
}

// DocumentDeleted signals a document was deleted.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// DocumentReprocessed signals a reprocess run finished.
// Document is set even when a stage failed.
type DocumentReprocessed struct {
	DocumentID string
	Document   *domain.Document
	Err        error
}

// AskRequested opens the ask view scoped to a module.
type AskRequested struct {
	ModuleID string
}

// ContextRetrieved carries the result of a retrieval.
type ContextRetrieved struct {
	Result *domain.ContextResult
	Err    error
}
