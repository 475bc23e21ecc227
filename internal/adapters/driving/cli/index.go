package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	indexCheck bool
	indexJSON  bool
	indexTopK  int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and maintain the search index",
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Long: `Show index statistics.

With --check, the durable store and the in-memory index are compared and
documents without chunks, chunks missing from the index and index entries
without a backing document are reported.`,
	Args: cobra.NoArgs,
	RunE: runIndexStats,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from stored chunks",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

var indexSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the index without generating an answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexSearch,
}

func init() {
	indexStatsCmd.Flags().BoolVar(&indexCheck, "check", false, "run a data-quality check")
	indexStatsCmd.Flags().BoolVar(&indexJSON, "json", false, "print as JSON")
	indexSearchCmd.Flags().IntVarP(&indexTopK, "top-k", "k", 5, "maximum number of hits")
	indexSearchCmd.Flags().BoolVar(&indexJSON, "json", false, "print as JSON")

	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexSearchCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	stats := ingestService.Stats()
	if !indexCheck {
		if indexJSON {
			return printJSON(cmd, stats)
		}
		printIndexStats(cmd, stats.DocumentCount, stats.VocabularySize, stats.TotalTerms, stats.AverageTermsPerDocument)
		return nil
	}

	report, err := ingestService.CheckQuality(cmd.Context())
	if err != nil {
		return fmt.Errorf("checking index quality: %w", err)
	}

	if indexJSON {
		return printJSON(cmd, map[string]any{
			"stats":   stats,
			"quality": report,
			"healthy": report.Healthy(),
		})
	}

	printIndexStats(cmd, stats.DocumentCount, stats.VocabularySize, stats.TotalTerms, stats.AverageTermsPerDocument)
	cmd.Println()
	cmd.Println("Data quality")
	cmd.Printf("  Documents:          %d\n", report.Documents)
	cmd.Printf("  Chunks:             %d\n", report.Chunks)
	cmd.Printf("  Indexed entries:    %d\n", report.IndexedEntries)
	cmd.Printf("  Empty documents:    %s\n", joinOrNone(report.EmptyDocuments))
	cmd.Printf("  Missing from index: %s\n", joinOrNone(report.MissingFromIndex))
	cmd.Printf("  Orphaned entries:   %s\n", joinOrNone(report.Orphaned))
	if report.Healthy() {
		cmd.Println("Index is consistent with the store.")
	} else {
		cmd.Println("Index is out of date; run 'sercha-rag index rebuild'.")
	}
	return nil
}

func printIndexStats(cmd *cobra.Command, docs, vocab, terms int, avg float64) {
	cmd.Println("Index")
	cmd.Printf("  Indexed chunks:     %d\n", docs)
	cmd.Printf("  Vocabulary size:    %d\n", vocab)
	cmd.Printf("  Total terms:        %d\n", terms)
	cmd.Printf("  Avg terms / chunk:  %.1f\n", avg)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	n, err := ingestService.Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}
	cmd.Printf("Rebuilt index with %d chunk(s)\n", n)
	return nil
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	hits := ingestService.Search(strings.Join(args, " "), indexTopK)
	if indexJSON {
		return printJSON(cmd, hits)
	}

	if len(hits) == 0 {
		cmd.Println("No matches.")
		return nil
	}
	for i, h := range hits {
		cmd.Printf("%d. %s (score %.3f, terms: %s)\n", i+1, h.DocID, h.Score, joinOrNone(h.MatchedTerms))
		cmd.Printf("   %s\n", snippet(h.Content, 100))
	}
	return nil
}
