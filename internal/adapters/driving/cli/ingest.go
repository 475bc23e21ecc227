package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var ingestTitle string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add documents to the knowledge base",
	Long: `Add documents to the knowledge base.

Plain text, markdown and HTML files are supported. Re-ingesting an
unchanged file is skipped; a changed file replaces its previous chunks.`,
}

var ingestFileCmd = &cobra.Command{
	Use:   "file [path...]",
	Short: "Ingest one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngestFile,
}

var ingestDirCmd = &cobra.Command{
	Use:   "dir [directory]",
	Short: "Ingest every supported file under a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestDir,
}

var ingestTextCmd = &cobra.Command{
	Use:   "text [doc-id] [text]",
	Short: "Ingest raw text under a document ID",
	Long: `Ingest raw text under a document ID.

If the text argument is omitted or "-", the text is read from stdin.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIngestText,
}

func init() {
	ingestTextCmd.Flags().StringVar(&ingestTitle, "title", "", "document title")
	ingestCmd.AddCommand(ingestFileCmd)
	ingestCmd.AddCommand(ingestDirCmd)
	ingestCmd.AddCommand(ingestTextCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestFile(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	var errs *multierror.Error
	for _, path := range args {
		result, err := ingestService.IngestFile(cmd.Context(), path)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		printIngestResult(cmd, path, result)
	}
	return errs.ErrorOrNil()
}

func runIngestDir(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	results, err := ingestService.IngestDirectory(cmd.Context(), args[0])
	ingested, skipped := 0, 0
	for i := range results {
		if results[i].Skipped {
			skipped++
		} else {
			ingested++
		}
	}
	cmd.Printf("Ingested %d document(s), %d unchanged\n", ingested, skipped)
	return err
}

func runIngestText(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	docID := args[0]
	var text string
	if len(args) == 2 && args[1] != "-" {
		text = args[1]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}

	var metadata map[string]any
	if ingestTitle != "" {
		metadata = map[string]any{domain.MetaTitle: ingestTitle}
	}

	result, err := ingestService.Ingest(cmd.Context(), docID, text, metadata)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printIngestResult(cmd, docID, result)
	return nil
}

func printIngestResult(cmd *cobra.Command, name string, result *domain.IngestResult) {
	if result.Skipped {
		cmd.Printf("Unchanged: %s (%s)\n", name, result.DocumentID)
		return
	}
	cmd.Printf("Ingested: %s (%s, %d chunks)\n", name, result.DocumentID, result.ChunkCount)
}
