package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, chunking, retrieval, storage
and queue settings.

Settings are stored in ~/.aipilot/config.toml. AIPILOT_* environment
variables and a .env file override stored values.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:     "set [key] [value]",
	Short:   "Set a single setting",
	Example: "  aipilot settings set retrieval.threshold 0.65\n  aipilot settings set chunking.strategy sentence",
	Args:    cobra.ExactArgs(2),
	RunE:    runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Interactively choose the embedding provider, model and API key, then check connectivity.`,
	RunE:  runSettingsEmbedding,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Batch size: %d\n", settings.Embedding.BatchSize)
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Strategy: %s\n", settings.Chunking.Strategy)
	keys := make([]string, 0, len(settings.Chunking.Options))
	for k := range settings.Chunking.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %s: %v\n", k, settings.Chunking.Options[k])
	}
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Max chunks: %d\n", settings.Retrieval.MaxChunks)
	cmd.Printf("  Threshold: %.2f\n", settings.Retrieval.Threshold)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	switch settings.Storage.Backend {
	case domain.StorageSQLite:
		cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	case domain.StoragePostgres:
		cmd.Printf("  DSN: %s\n", maskAPIKey(settings.Storage.PostgresDSN))
	}
	cmd.Println()

	cmd.Println("[Queue]")
	if settings.Redis.URL != "" {
		cmd.Printf("  Redis: %s\n", settings.Redis.URL)
		cmd.Printf("  Query cache TTL: %s\n", settings.Redis.QueryCacheTTL)
		cmd.Printf("  Worker: %d on %q\n", settings.Worker.Concurrency, settings.Worker.Queue)
	} else {
		cmd.Println("  Redis: (not set, processing runs inline)")
	}
	cmd.Println()

	cmd.Println("[Extraction]")
	if settings.Extraction.GeminiAPIKey != "" {
		cmd.Printf("  Assisted: %s (%s)\n", settings.Extraction.Model, maskAPIKey(settings.Extraction.GeminiAPIKey))
	} else {
		cmd.Println("  Assisted: off")
	}
	cmd.Println()

	cmd.Printf("HTTP address: %s\n\n", settings.HTTPAddr)

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'aipilot settings embedding' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s updated.\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	keys := services.SettingKeys()
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Println(k)
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// stdinIsTerminal is swapped in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readPassword reads without echo on a terminal and falls back to reader.
func readPassword(reader *bufio.Reader) string {
	if stdinIsTerminal() {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
