package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/watch"
)

var watchNoSync bool

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Keep a directory in sync with the knowledge base",
	Long: `Watch a directory tree and keep the knowledge base in sync with it.

On start the directory is ingested and documents whose files have been
deleted are removed. Afterwards new and modified files are ingested and
deleted files are removed as they change. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoSync, "no-sync", false, "skip the initial full sync")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	w, err := watch.New(ingestService, args[0], watch.WithNotify(func(ev watch.Event) {
		if ev.Err != nil {
			cmd.PrintErrf("%s %s: %v\n", ev.Action, ev.Path, ev.Err)
			return
		}
		cmd.Printf("%s %s\n", ev.Action, ev.Path)
	}))
	if err != nil {
		return err
	}

	if !watchNoSync {
		report, err := w.Sync(cmd.Context())
		cmd.Printf("Synced %s: %d ingested, %d unchanged, %d removed\n",
			w.Root(), report.Ingested, report.Unchanged, report.Removed)
		if err != nil {
			cmd.PrintErrf("sync errors: %v\n", err)
		}
	}

	stop := startScheduler(cmd.Context(), cmd.ErrOrStderr())
	defer stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", w.Root())
	if err := w.Run(cmd.Context()); err != nil {
		return fmt.Errorf("watching %s: %w", w.Root(), err)
	}
	return nil
}
