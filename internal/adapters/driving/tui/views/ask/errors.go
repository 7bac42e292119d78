package ask

import "errors"

// Error definitions for the ask view.
var (
	// ErrNoRetrievalService indicates that no retrieval service was provided.
	ErrNoRetrievalService = errors.New("retrieval service is required")

	// ErrNoModule indicates that no module was chosen.
	ErrNoModule = errors.New("no module selected; start the board with --module or pick a document")
)
