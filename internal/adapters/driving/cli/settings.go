package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the generation backend, retrieval and other options.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsGenerationCmd = &cobra.Command{
	Use:   "generation",
	Short: "Configure the generation backend",
	Long: `Configure the backend used to answer questions.

Available providers:
  ollama    - Local Ollama instance
  openai    - Any OpenAI-compatible /chat/completions API
  anthropic - Anthropic messages API`,
	RunE: runSettingsGeneration,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate settings and ping the generation backend",
	RunE:  runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsGenerationCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
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

	gen := settings.Generation
	cmd.Println("[Generation]")
	cmd.Printf("  Provider: %s\n", gen.Provider.Description())
	cmd.Printf("  Model: %s\n", valueOrUnset(gen.Model))
	cmd.Printf("  Base URL: %s\n", valueOrUnset(gen.BaseURL))
	if gen.Provider.RequiresAPIKey() {
		if gen.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(gen.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Timeout: %s\n", gen.Timeout)
	cmd.Printf("  Max tokens: %d\n", gen.MaxTokens)
	cmd.Printf("  Temperature: %.2f\n", gen.Temperature)
	if gen.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.2f req/s\n", gen.RequestsPerSecond)
	}
	status := "configured"
	if !gen.IsConfigured() {
		status = "not configured (answers fall back)"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Chunk size: %d\n", settings.Chunking.Size)
	cmd.Printf("  Chunk overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  TTL: %s\n", settings.Cache.TTL)
	cmd.Printf("  Capacity: %d\n", settings.Cache.Capacity)
	cmd.Println()

	br := settings.Breaker
	cmd.Println("[Circuit Breaker]")
	cmd.Printf("  Window: %d calls\n", br.Window)
	cmd.Printf("  Failure ratio: %.2f\n", br.FailureRatio)
	cmd.Printf("  Open timeout: %s\n", br.OpenTimeout)
	cmd.Printf("  Half-open calls: %d\n", br.HalfOpenCalls)
	cmd.Println()

	cmd.Println("[History]")
	if settings.History.RetentionDays > 0 {
		cmd.Printf("  Retention: %d days\n", settings.History.RetentionDays)
	} else {
		cmd.Printf("  Retention: forever\n")
	}
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage)
	cmd.Println()

	cmd.Println("[Scheduler]")
	if !settings.Scheduler.Enabled {
		cmd.Printf("  Enabled: no\n")
		return nil
	}
	cmd.Printf("  Enabled: yes\n")
	for _, id := range []string{domain.TaskIDIndexRebuild, domain.TaskIDHistoryPrune} {
		tc := settings.Scheduler.GetTaskConfig(id)
		if tc.Enabled && tc.Interval > 0 {
			cmd.Printf("  %s: every %s\n", id, tc.Interval)
		} else {
			cmd.Printf("  %s: disabled\n", id)
		}
	}
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("sercha-rag Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Configure Generation Backend")
	cmd.Println("------------------------------------")
	if err := configureGenerationProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Retrieval")
	cmd.Println("-----------------")
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	settings.Retrieval.TopK = promptInt(cmd, reader, "Chunks retrieved per question", settings.Retrieval.TopK)
	settings.Chunking.Size = promptInt(cmd, reader, "Chunk size (characters)", settings.Chunking.Size)
	settings.Chunking.Overlap = promptInt(cmd, reader, "Chunk overlap (characters)", settings.Chunking.Overlap)
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println()

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	return nil
}

func runSettingsGeneration(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureGenerationProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	cmd.Print("Pinging generation backend... ")
	if err := settingsService.ValidateGenerationConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("generation configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	return nil
}

func configureGenerationProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Generation Provider")
	providers := domain.AllGenerationProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaults := domain.DefaultGenerationModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	cmd.Print("Enter base URL [provider default]: ")
	baseURL := readLine(reader)

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key (leave empty to keep the current key): ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
	}

	if err := settingsService.SetGenerationProvider(selectedProvider, model, apiKey, baseURL); err != nil {
		return fmt.Errorf("failed to configure generation provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateGenerationConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("generation configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Generation provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// parseChoice reads a 1-based menu choice, falling back to defaultVal.
func parseChoice(input string, maxVal, defaultVal int) int {
	val, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func promptInt(cmd *cobra.Command, reader *bufio.Reader, label string, current int) int {
	cmd.Printf("%s [%d]: ", label, current)
	input := readLine(reader)
	if input == "" {
		return current
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 0 {
		cmd.Printf("Invalid number, keeping %d\n", current)
		return current
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
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

func valueOrUnset(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
