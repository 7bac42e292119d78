package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

var (
	ingestModule     string
	ingestTeacher    string
	ingestTitle      string
	ingestTestBank   bool
	ingestDetectBank bool
	ingestAsync      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Upload files and run the pipeline",
	Long: `Uploads one or more files to a module and runs extraction, chunking and
embedding. With --async the pipeline runs on the background worker instead.

A failure in one file is recorded on its document and does not stop the
remaining files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var processCmd = &cobra.Command{
	Use:   "process [doc-id]",
	Short: "Resume the pipeline for an uploaded document",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestModule, "module", "m", "", "module the files belong to (required)")
	ingestCmd.Flags().StringVarP(&ingestTeacher, "teacher", "t", "", "uploading teacher ID")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (single file only, default: file name)")
	ingestCmd.Flags().BoolVar(&ingestTestBank, "testbank", false, "mark files as question-bank sources")
	ingestCmd.Flags().BoolVar(&ingestDetectBank, "detect-testbank", false,
		"mark files whose name mentions a test bank as question-bank sources")
	ingestCmd.Flags().BoolVar(&ingestAsync, "async", false, "enqueue processing for the worker")
	_ = ingestCmd.MarkFlagRequired("module")

	processCmd.Flags().BoolVar(&ingestAsync, "async", false, "enqueue processing for the worker")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(processCmd)
}

// ingestResult is one line of ingest output.
type ingestResult struct {
	File       string                  `json:"file"`
	DocumentID string                  `json:"document_id,omitempty"`
	Status     domain.ProcessingStatus `json:"status,omitempty"`
	Queued     bool                    `json:"queued,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if ingestTitle != "" && len(args) > 1 {
		return errors.New("--title can only be used with a single file")
	}
	if ingestAsync && taskDispatcher == nil {
		return errors.New("--async requires redis.url to be configured")
	}

	ctx := cmd.Context()
	results := make([]ingestResult, 0, len(args))
	failed := 0
	for _, path := range args {
		res := ingestFile(ctx, path)
		if res.Error != "" {
			failed++
		}
		results = append(results, res)
		if !wantJSON() {
			printIngestResult(cmd, res)
		}
	}

	if wantJSON() {
		if err := printJSON(cmd, results); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func ingestFile(ctx context.Context, path string) ingestResult {
	res := ingestResult{File: path}

	content, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	doc, err := ingestService.Ingest(ctx, domain.Upload{
		Title:      ingestTitle,
		FileName:   filepath.Base(path),
		Content:    content,
		TeacherID:  ingestTeacher,
		ModuleID:   ingestModule,
		IsTestBank: ingestTestBank || (ingestDetectBank && looksLikeTestBank(path)),
	})
	if err != nil {
		if doc != nil {
			res.DocumentID = doc.ID
			res.Status = doc.Status
		}
		res.Error = err.Error()
		return res
	}
	res.DocumentID = doc.ID
	res.Status = doc.Status

	return finishPipeline(ctx, res)
}

// finishPipeline runs or enqueues the rest of the pipeline for res.
func finishPipeline(ctx context.Context, res ingestResult) ingestResult {
	if ingestAsync {
		if err := taskDispatcher.EnqueueProcess(ctx, res.DocumentID); err != nil {
			res.Error = err.Error()
			return res
		}
		res.Queued = true
		return res
	}

	doc, err := ingestService.Process(ctx, res.DocumentID)
	if doc != nil {
		res.Status = doc.Status
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func printIngestResult(cmd *cobra.Command, res ingestResult) {
	switch {
	case res.Error != "" && res.DocumentID == "":
		cmd.Printf("%s %s: %s\n", errStyle.Render("✗"), res.File, res.Error)
	case res.Error != "":
		cmd.Printf("%s %s -> %s [%s]: %s\n", errStyle.Render("✗"), res.File, res.DocumentID,
			styledStatus(res.Status), res.Error)
	case res.Queued:
		cmd.Printf("%s %s -> %s (queued)\n", busyStyle.Render("…"), res.File, res.DocumentID)
	default:
		cmd.Printf("%s %s -> %s [%s]\n", okStyle.Render("✓"), res.File, res.DocumentID, styledStatus(res.Status))
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if ingestAsync && taskDispatcher == nil {
		return errors.New("--async requires redis.url to be configured")
	}

	res := finishPipeline(cmd.Context(), ingestResult{DocumentID: args[0]})
	if wantJSON() {
		if err := printJSON(cmd, res); err != nil {
			return err
		}
	} else if res.Error == "" {
		if res.Queued {
			cmd.Printf("Document %s queued for processing.\n", res.DocumentID)
		} else {
			cmd.Printf("Document %s is %s.\n", res.DocumentID, styledStatus(res.Status))
		}
	}
	if res.Error != "" {
		return errors.New(res.Error)
	}
	return nil
}

// looksLikeTestBank applies the file-name heuristic for question banks.
func looksLikeTestBank(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, marker := range []string{"testbank", "test_bank", "test-bank", "test bank", "question bank", "questionbank"} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
