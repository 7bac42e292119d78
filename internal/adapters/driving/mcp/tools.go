package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/services"
)

// RetrieveContextInput is the input schema for the retrieve_context tool.
type RetrieveContextInput struct {
	Question  string   `json:"question" jsonschema:"the question being answered or graded"`
	Answer    string   `json:"answer,omitempty" jsonschema:"the answer text used to sharpen the query"`
	ModuleID  string   `json:"module_id" jsonschema:"the module whose documents are searched"`
	MaxChunks int      `json:"max_chunks,omitempty" jsonschema:"maximum number of chunks to return (default 3)"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum similarity between 0 and 1 (default 0.7, 0 keeps every match)"`
}

// RetrieveContextOutput is the output schema for the retrieve_context tool.
type RetrieveContextOutput struct {
	HasContext       bool          `json:"has_context"`
	Chunks           []ChunkOutput `json:"chunks"`
	Sources          []string      `json:"sources"`
	FormattedContext string        `json:"formatted_context"`
	Summary          string        `json:"summary"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	ChunkIndex    int     `json:"chunk_index"`
	Text          string  `json:"text"`
	Similarity    float64 `json:"similarity"`
}

// GetStatusInput is the input schema for the get_status tool.
type GetStatusInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to report on"`
}

// GetStatusOutput is the output schema for the get_status tool.
type GetStatusOutput struct {
	DocumentID string         `json:"document_id"`
	Status     string         `json:"status"`
	IsReady    bool           `json:"is_ready"`
	HasError   bool           `json:"has_error"`
	Metadata   map[string]any `json:"metadata"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Find course material passages that support a question and answer",
	}, s.handleRetrieveContext)

	if s.ports.Status != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_status",
			Description: "Report the processing status of an uploaded document",
		}, s.handleGetStatus)
	}
}

// handleRetrieveContext handles the retrieve_context tool invocation.
func (s *Server) handleRetrieveContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveContextInput,
) (*mcp.CallToolResult, RetrieveContextOutput, error) {
	if input.Question == "" {
		return nil, RetrieveContextOutput{}, errors.New("question is required")
	}

	result, err := s.ports.Retrieval.RetrieveContext(ctx, domain.ContextRequest{
		Question:  input.Question,
		Answer:    input.Answer,
		ModuleID:  input.ModuleID,
		MaxChunks: input.MaxChunks,
		Threshold: input.Threshold,
	})
	if err != nil {
		return nil, RetrieveContextOutput{}, err
	}

	output := RetrieveContextOutput{
		HasContext:       result.HasContext,
		Chunks:           make([]ChunkOutput, len(result.Chunks)),
		Sources:          result.Sources,
		FormattedContext: result.FormattedContext,
		Summary:          services.Summary(result),
	}
	if output.Sources == nil {
		output.Sources = []string{}
	}

	for i := range result.Chunks {
		output.Chunks[i] = ChunkOutput{
			DocumentID:    result.Chunks[i].DocumentID,
			DocumentTitle: result.Chunks[i].DocumentTitle,
			ChunkIndex:    result.Chunks[i].ChunkIndex,
			Text:          result.Chunks[i].Text,
			Similarity:    result.Chunks[i].Similarity,
		}
	}

	return nil, output, nil
}

// handleGetStatus handles the get_status tool invocation.
func (s *Server) handleGetStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetStatusInput,
) (*mcp.CallToolResult, GetStatusOutput, error) {
	if input.DocumentID == "" {
		return nil, GetStatusOutput{}, errors.New("document_id is required")
	}

	report, err := s.ports.Status.Get(ctx, input.DocumentID)
	if err != nil {
		return nil, GetStatusOutput{}, err
	}

	return nil, GetStatusOutput{
		DocumentID: report.DocumentID,
		Status:     report.Status.String(),
		IsReady:    report.IsReady,
		HasError:   report.HasError,
		Metadata:   report.Metadata,
	}, nil
}
