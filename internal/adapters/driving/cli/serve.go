package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/httpapi"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API used by the course platform.

Endpoints:
  POST   /documents                 Upload a file (multipart) and run the pipeline
  GET    /documents                 List documents (module_id, teacher_id, status)
  GET    /documents/:id             Get a document
  DELETE /documents/:id             Delete a document with its chunks
  GET    /documents/:id/status      Processing status report
  GET    /documents/:id/chunks      Chunks of a document
  POST   /documents/:id/process     Resume the pipeline
  POST   /documents/:id/reprocess   Run the pipeline from extraction
  POST   /documents/:id/embed       Generate missing embeddings
  POST   /embeddings/retry          Retry missing embeddings
  POST   /context                   Retrieve context for a question

Add ?async=true to pipeline endpoints to hand the work to the worker
when redis.url is configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: http_addr setting)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr := serveAddr
	if addr == "" && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			addr = settings.HTTPAddr
		}
	}
	if addr == "" {
		addr = domain.DefaultHTTPAddr
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Ingest:     ingestService,
		Document:   documentService,
		Status:     statusService,
		Retrieval:  retrievalService,
		Embeddings: embeddingGenerator,
		Dispatcher: taskDispatcher,
	})
	if err != nil {
		if errors.Is(err, httpapi.ErrMissingPorts) {
			return errors.New("services not configured")
		}
		return err
	}

	cmd.Printf("HTTP API listening on %s\n", addr)
	return server.Run(cmd.Context(), addr)
}
