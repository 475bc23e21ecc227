package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	historyMode    string
	historySession string
	historyPage    int
	historySize    int
	historyJSON    bool
	historyYes     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and manage query history",
	Long:  `List, inspect and delete recorded questions and answers.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded queries, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a recorded query",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a recorded query",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history and cached answers",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show query statistics",
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete history older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	historyListCmd.Flags().StringVarP(&historyMode, "mode", "m", "", "only show NLP or RAG queries")
	historyListCmd.Flags().StringVar(&historySession, "session", "", "only show one session")
	historyListCmd.Flags().IntVarP(&historyPage, "page", "p", 1, "page number, starting at 1")
	historyListCmd.Flags().IntVarP(&historySize, "size", "n", domain.DefaultPageSize, "records per page")
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "print as JSON")
	historyStatsCmd.Flags().BoolVar(&historyJSON, "json", false, "print as JSON")
	historyClearCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "do not ask for confirmation")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	filter := domain.HistoryFilter{SessionID: historySession}
	if historyMode != "" {
		mode, err := domain.ParseQueryMode(historyMode)
		if err != nil {
			return err
		}
		if !mode.IsResolved() {
			return fmt.Errorf("%w: history mode must be NLP or RAG", domain.ErrInvalidInput)
		}
		filter.Mode = mode
	}

	page, err := historyService.List(cmd.Context(), filter, domain.PageRequest{
		Page: historyPage - 1,
		Size: historySize,
	})
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if historyJSON {
		return printJSON(cmd, page)
	}

	if page.Total == 0 {
		cmd.Println("No history.")
		return nil
	}
	for i := range page.Records {
		r := &page.Records[i]
		flag := ""
		if r.Fallback {
			flag = " (fallback)"
		}
		cmd.Printf("%6d  %s  %-3s  %s%s\n", r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Mode, snippet(r.Question, 60), flag)
	}
	cmd.Printf("\nPage %d of %d (%d records)\n", page.Page+1, page.TotalPages(), page.Total)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}
	id, err := parseHistoryID(args[0])
	if err != nil {
		return err
	}

	record, err := historyService.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("getting history record: %w", err)
	}

	cmd.Printf("ID:       %d\n", record.ID)
	cmd.Printf("Asked:    %s\n", record.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	cmd.Printf("Mode:     %s\n", record.Mode)
	if record.SessionID != "" {
		cmd.Printf("Session:  %s\n", record.SessionID)
	}
	cmd.Printf("Sources:  %d\n", record.SourceCount)
	cmd.Printf("Time:     %dms\n", record.ResponseTimeMs)
	cmd.Printf("Fallback: %t\n", record.Fallback)
	cmd.Println()
	cmd.Printf("Q: %s\n\n", record.Question)
	cmd.Printf("A: %s\n", record.Answer)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}
	id, err := parseHistoryID(args[0])
	if err != nil {
		return err
	}

	if err := historyService.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("deleting history record: %w", err)
	}
	cmd.Printf("Deleted history record %d\n", id)
	return nil
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	if !historyYes {
		cmd.Print("Delete all history and cached answers? [y/N]: ")
		answer := strings.ToLower(readLine(bufio.NewReader(cmd.InOrStdin())))
		if answer != "y" && answer != "yes" {
			cmd.Println("Cancelled.")
			return nil
		}
	}

	if err := historyService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	cmd.Println("History cleared.")
	return nil
}

func runHistoryStats(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	stats, err := historyService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("getting history stats: %w", err)
	}

	if historyJSON {
		return printJSON(cmd, stats)
	}

	cmd.Printf("Total queries:     %d\n", stats.TotalQueries)
	cmd.Printf("RAG queries:       %d (%.1f%%)\n", stats.RAGQueries, stats.RAGPercentage)
	cmd.Printf("NLP queries:       %d (%.1f%%)\n", stats.NLPQueries, stats.NLPPercentage)
	cmd.Printf("Fallback answers:  %d\n", stats.FallbackQueries)
	cmd.Printf("Avg response time: %.0fms\n", stats.AverageResponseMs)
	return nil
}

func runHistoryPrune(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	n, err := historyService.Prune(cmd.Context())
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}
	cmd.Printf("Pruned %d history record(s)\n", n)
	return nil
}

func parseHistoryID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid history id %q", domain.ErrInvalidInput, s)
	}
	return id, nil
}
