package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	askMode    string
	askTopK    int
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Ask a question and get an answer.

With --mode AUTO (the default) the question is routed automatically:
questions about your documents use retrieval-augmented generation (RAG),
general questions are answered directly (NLP). If the generation backend
is unavailable a fallback answer is returned.

Examples:
  sercha-rag ask "what does the deployment guide say about rollbacks"
  sercha-rag ask --mode NLP "explain TF-IDF in one paragraph"
  sercha-rag ask --top-k 5 --json "summarise the onboarding document"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMode, "mode", "m", "AUTO", "query mode: AUTO, RAG or NLP")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "chunks to retrieve (0 = configured default)")
	askCmd.Flags().StringVar(&askSession, "session", "", "session identifier recorded in history")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	mode, err := domain.ParseQueryMode(askMode)
	if err != nil {
		return err
	}
	if askTopK < 0 {
		return fmt.Errorf("%w: top-k must not be negative", domain.ErrInvalidInput)
	}

	result, err := queryService.Query(cmd.Context(), domain.QueryRequest{
		Question:  strings.Join(args, " "),
		Mode:      mode,
		TopK:      askTopK,
		SessionID: askSession,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, result)
	}
	printAnswer(cmd, result)
	return nil
}

// answerStyles renders plain text unless the output is a terminal.
type answerStyles struct {
	heading lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
}

func newAnswerStyles(cmd *cobra.Command) answerStyles {
	if !isTerminal(cmd.OutOrStdout()) {
		return answerStyles{}
	}
	return answerStyles{
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#777777")),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
	}
}

func printAnswer(cmd *cobra.Command, result *domain.QueryResult) {
	st := newAnswerStyles(cmd)

	cmd.Println(st.heading.Render("Answer:"))
	cmd.Println(result.Answer)
	cmd.Println()

	if result.Fallback {
		cmd.Println(st.warning.Render("Note: the generation backend is unavailable, this is a fallback answer."))
	}
	if result.Degraded {
		cmd.Println(st.warning.Render("Note: no relevant documents were found."))
	}

	if len(result.Sources) > 0 {
		cmd.Println(st.heading.Render("Sources:"))
		for i, src := range result.Sources {
			title := src.Title
			if title == "" {
				title = src.DocumentID
			}
			cmd.Printf("  %d. %s [chunk %d] (score %.3f)\n", i+1, title, src.ChunkIndex, src.Score)
			cmd.Println(st.muted.Render("     " + snippet(src.Content, 100)))
		}
		cmd.Println()
	}

	meta := fmt.Sprintf("Mode: %s | %dms", result.Mode, result.ResponseTimeMs)
	if result.Routing != nil {
		meta += fmt.Sprintf(" | routing confidence %.2f", result.Routing.Confidence)
	}
	if result.FromCache {
		meta += " | cached"
	}
	cmd.Println(st.muted.Render(meta))
}

// snippet flattens text to one line and truncates it to max runes.
func snippet(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}
