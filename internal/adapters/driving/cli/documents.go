package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	documentsJSON   bool
	documentsChunks bool
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage ingested documents",
	Long:    `List, inspect and remove documents in the knowledge base.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsRemoveCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsRemove,
}

func init() {
	documentsListCmd.Flags().BoolVar(&documentsJSON, "json", false, "print as JSON")
	documentsShowCmd.Flags().BoolVar(&documentsChunks, "chunks", false, "print the document's chunks")
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsRemoveCmd)
	rootCmd.AddCommand(documentsCmd)
}

type documentSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URI       string `json:"uri,omitempty"`
	MIMEType  string `json:"mime_type"`
	UpdatedAt string `json:"updated_at"`
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	docs, err := ingestService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if documentsJSON {
		out := make([]documentSummary, len(docs))
		for i := range docs {
			out[i] = documentSummary{
				ID:        docs[i].ID,
				Title:     docs[i].Title,
				URI:       docs[i].URI,
				MIMEType:  docs[i].MIMEType,
				UpdatedAt: docs[i].UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
			}
		}
		return printJSON(cmd, out)
	}

	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}
	cmd.Printf("Documents (%d):\n", len(docs))
	for i := range docs {
		cmd.Printf("  %s  %s\n", docs[i].ID, displayTitle(&docs[i]))
	}
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	doc, err := ingestService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting document: %w", err)
	}

	cmd.Printf("ID:       %s\n", doc.ID)
	cmd.Printf("Title:    %s\n", displayTitle(doc))
	if doc.URI != "" {
		cmd.Printf("URI:      %s\n", doc.URI)
	}
	cmd.Printf("Type:     %s\n", doc.MIMEType)
	cmd.Printf("Checksum: %08x\n", doc.Checksum)
	cmd.Printf("Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if !documentsChunks {
		cmd.Println()
		cmd.Println(snippet(doc.Content, 500))
		return nil
	}

	chunks, err := ingestService.Chunks(cmd.Context(), doc.ID)
	if err != nil {
		return fmt.Errorf("getting chunks: %w", err)
	}
	cmd.Printf("\nChunks (%d):\n", len(chunks))
	for _, c := range chunks {
		cmd.Printf("  [%d] %s\n", c.Index, snippet(c.Content, 120))
	}
	return nil
}

func runDocumentsRemove(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	removed, err := ingestService.Remove(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("removing document: %w", err)
	}
	if !removed {
		return fmt.Errorf("document %q: %w", args[0], domain.ErrNotFound)
	}
	cmd.Printf("Removed document %s\n", args[0])
	return nil
}

func displayTitle(doc *domain.Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	if doc.URI != "" {
		return doc.URI
	}
	return "(untitled)"
}
