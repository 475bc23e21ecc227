package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var routeJSON bool

var routeCmd = &cobra.Command{
	Use:   "route [question]",
	Short: "Show how a question would be routed",
	Long: `Classify a question without answering it.

Prints the chosen mode (RAG or NLP), the confidence, and the keywords and
patterns that drove the decision.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoute,
}

func init() {
	routeCmd.Flags().BoolVar(&routeJSON, "json", false, "print the decision as JSON")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	if routerService == nil {
		return errors.New("router service not configured")
	}

	decision := routerService.Classify(strings.Join(args, " "))
	if routeJSON {
		return printJSON(cmd, decision)
	}

	cmd.Printf("Mode:       %s\n", decision.Mode)
	cmd.Printf("Confidence: %.2f\n", decision.Confidence)
	cmd.Printf("Keywords:   %s\n", joinOrNone(decision.MatchedKeywords))
	cmd.Printf("Patterns:   %s\n", joinOrNone(decision.MatchedPatterns))
	cmd.Printf("Reason:     %s\n", decision.Reason)
	return nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
