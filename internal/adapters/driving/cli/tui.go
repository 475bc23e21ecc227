package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var tuiMode string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Ask questions in a chat view, browse the query history and watch index
and cache statistics. Press ? inside the TUI for every keybinding.

With --mode the TUI opens straight into the ask view in that mode;
otherwise it starts at the menu. Maintenance tasks run in the background
while it is open.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiMode, "mode", "m", "", "open the ask view in AUTO, RAG or NLP mode")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	var mode domain.QueryMode
	if tuiMode != "" {
		m, err := domain.ParseQueryMode(tuiMode)
		if err != nil {
			return err
		}
		mode = m
	}

	app, err := tui.NewApp(&tui.Ports{
		Query:    queryService,
		Router:   routerService,
		History:  historyService,
		Ingest:   ingestService,
		Settings: settingsService,
	})
	if err != nil {
		return fmt.Errorf("starting TUI: %w", err)
	}
	if mode != "" {
		app.StartAsking(mode)
	}

	stop := startScheduler(cmd.Context(), cmd.ErrOrStderr())
	defer stop()

	err = app.WithContext(cmd.Context()).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}
