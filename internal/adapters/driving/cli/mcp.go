package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ground
answers in uploaded course material.

By default, the server communicates over stdio using JSON-RPC. Use --port
to serve streamable HTTP instead.

Tools:
  retrieve_context   Relevant passages for a question in a module
  get_status         Processing status of a document

Examples:
  # Stdio mode (default)
  aipilot mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  aipilot mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	ports := &mcp.Ports{
		Retrieval: retrievalService,
		Status:    statusService,
		Document:  documentService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
