// Package mcp provides an MCP (Model Context Protocol) server adapter for ai-pilot.
// It lets AI assistants fetch grounding context and check document processing status.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
