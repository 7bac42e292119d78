package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// WorkerFunc runs the background task server until ctx is cancelled.
type WorkerFunc func(ctx context.Context) error

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background pipeline worker",
	Long: `Run the worker that processes queued documents and embedding retries.

Requires redis.url. Tasks are enqueued with --async on ingest, process and
embed retry, or with ?async=true on the HTTP API. Stop with Ctrl+C.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	if workerFunc == nil {
		return errors.New("worker requires redis.url to be configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Println("Worker started. Press Ctrl+C to stop.")
	return workerFunc(ctx)
}
