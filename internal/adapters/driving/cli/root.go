// Package cli provides the cobra command tree for aipilot.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Services holds the core services the commands call.
// Embeddings and Dispatcher may be nil.
type Services struct {
	Ingest     driving.IngestService
	Document   driving.DocumentService
	Status     driving.StatusService
	Extraction driving.ExtractionService
	Embeddings driving.EmbeddingGenerator
	Retrieval  driving.RetrievalService
	Settings   driving.SettingsService
	Dispatcher driven.TaskDispatcher

	// Worker runs the asynq task server until ctx is cancelled.
	Worker WorkerFunc
}

// Package-level services, set by SetServices before Execute.
var (
	ingestService      driving.IngestService
	documentService    driving.DocumentService
	statusService      driving.StatusService
	extractionService  driving.ExtractionService
	embeddingGenerator driving.EmbeddingGenerator
	retrievalService   driving.RetrievalService
	settingsService    driving.SettingsService
	taskDispatcher     driven.TaskDispatcher
	workerFunc         WorkerFunc
)

// Global flags.
var (
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "aipilot",
	Short: "Course material ingestion and retrieval",
	Long: `aipilot turns uploaded course files into searchable knowledge.

Files are extracted, chunked, embedded and indexed per module. Questions
and answers can then be grounded with the most relevant passages.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON (default when stdout is not a terminal)")
}

// SetServices injects the services used by all commands.
func SetServices(s *Services) {
	ingestService = s.Ingest
	documentService = s.Document
	statusService = s.Status
	extractionService = s.Extraction
	embeddingGenerator = s.Embeddings
	retrievalService = s.Retrieval
	settingsService = s.Settings
	taskDispatcher = s.Dispatcher
	workerFunc = s.Worker
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Command output goes to stdout so that
// JSON can be piped; cobra defaults Print to stderr.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

// providerHint explains how to enable embeddings.
func providerHint() string {
	return "no embedding provider configured; run 'aipilot settings embedding' or set " +
		"embedding.provider and embedding.api_key (" + string(domain.AIProviderOpenAI) + ", " +
		string(domain.AIProviderGemini) + " or " + string(domain.AIProviderOllama) + ")"
}
