package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/inbox"
)

var (
	watchModule   string
	watchTeacher  string
	watchTestBank bool
	watchExisting bool
	watchAsync    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files dropped into a directory",
	Long: `Watches a directory and uploads every new or changed file to a module.
Files are ingested once writes to them settle. Hidden files and
subdirectories are ignored, and unchanged content is skipped as a duplicate.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchModule, "module", "m", "", "module the files belong to (required)")
	watchCmd.Flags().StringVarP(&watchTeacher, "teacher", "t", "", "uploading teacher ID")
	watchCmd.Flags().BoolVar(&watchTestBank, "testbank", false, "mark files as question-bank sources")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "ingest files already in the directory first")
	watchCmd.Flags().BoolVar(&watchAsync, "async", false, "enqueue processing for the worker")
	_ = watchCmd.MarkFlagRequired("module")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if watchAsync && taskDispatcher == nil {
		return errors.New("--async requires redis.url to be configured")
	}

	cfg := inbox.Config{
		Dir:       args[0],
		ModuleID:  watchModule,
		TeacherID: watchTeacher,
		TestBank:  watchTestBank,
	}
	dispatcher := taskDispatcher
	if !watchAsync {
		dispatcher = nil
	}

	w, err := inbox.New(cfg, ingestService, dispatcher)
	if err != nil {
		return err
	}
	w.OnResult = func(r inbox.Result) {
		printIngestResult(cmd, toIngestResult(r))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchExisting {
		w.ScanExisting(ctx)
	}

	cmd.Printf("Watching %s for module %s. Press Ctrl+C to stop.\n", args[0], watchModule)
	return w.Run(ctx)
}

func toIngestResult(r inbox.Result) ingestResult {
	res := ingestResult{File: r.Path, Queued: r.Queued}
	if r.Document != nil {
		res.DocumentID = r.Document.ID
		res.Status = r.Document.Status
	}
	if r.Err != nil {
		res.Error = r.Err.Error()
	}
	return res
}
