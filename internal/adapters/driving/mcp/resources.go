package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for ai-pilot resources.
	uriScheme = "aipilot://"
)

// documentInfo is the JSON shape of a document in resource listings.
type documentInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	FileName   string `json:"file_name"`
	ModuleID   string `json:"module_id"`
	Status     string `json:"status"`
	IsTestBank bool   `json:"is_test_bank"`
}

// chunkInfo is the JSON shape of a chunk in resource listings.
type chunkInfo struct {
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Document == nil {
		return
	}

	// Static resource for listing every document.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "All uploaded documents with their processing status",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Template for one module's documents.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "modules/{moduleId}/documents",
		Name:        "module-documents",
		Description: "Documents uploaded to a specific module",
		MIMEType:    "application/json",
	}, s.handleModuleDocumentsResource)

	// Template for document chunks.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/chunks",
		Name:        "document-chunks",
		Description: "Chunks of a specific document in order",
		MIMEType:    "application/json",
	}, s.handleChunksResource)
}

// handleDocumentsResource returns every document.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return s.listDocuments(ctx, req.Params.URI, domain.DocumentFilter{})
}

// handleModuleDocumentsResource returns documents for a specific module.
func (s *Server) handleModuleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract moduleId from URI: aipilot://modules/{moduleId}/documents
	moduleID := extractModuleID(req.Params.URI)
	if moduleID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return s.listDocuments(ctx, req.Params.URI, domain.DocumentFilter{ModuleID: moduleID})
}

func (s *Server) listDocuments(
	ctx context.Context,
	uri string,
	filter domain.DocumentFilter,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Document.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]documentInfo, len(docs))
	for i := range docs {
		infos[i] = documentInfo{
			ID:         docs[i].ID,
			Title:      docs[i].Title,
			FileName:   docs[i].FileName,
			ModuleID:   docs[i].ModuleID,
			Status:     docs[i].Status.String(),
			IsTestBank: docs[i].IsTestBank,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleChunksResource returns the chunks of a specific document.
func (s *Server) handleChunksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract documentId from URI: aipilot://documents/{documentId}/chunks
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chunks, err := s.ports.Document.Chunks(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("getting document chunks: %w", err)
	}

	infos := make([]chunkInfo, len(chunks))
	for i := range chunks {
		infos[i] = chunkInfo{
			Index: chunks[i].Index,
			Start: chunks[i].Start,
			End:   chunks[i].End,
			Text:  chunks[i].Text,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling chunks: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractModuleID extracts the module ID from a URI like aipilot://modules/{moduleId}/documents.
func extractModuleID(uri string) string {
	return between(uri, uriScheme+"modules/", "/documents")
}

// extractDocumentID extracts the document ID from a URI like aipilot://documents/{documentId}/chunks.
func extractDocumentID(uri string) string {
	return between(uri, uriScheme+"documents/", "/chunks")
}

func between(uri, prefix, suffix string) string {
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
