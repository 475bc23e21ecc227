package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	tasksRecent int
	tasksJSON   bool
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show scheduled maintenance tasks",
	Long: `Show the background maintenance tasks and their latest runs.

index-rebuild re-indexes every stored chunk; history-prune deletes query
history older than history.retention_days. Tasks run while the watch, mcp
and tui commands are active.`,
	Args: cobra.NoArgs,
	RunE: runTasks,
}

func init() {
	tasksCmd.Flags().IntVarP(&tasksRecent, "recent", "n", 3, "number of recent runs to show per task")
	tasksCmd.Flags().BoolVar(&tasksJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}

	statuses, err := scheduler.Status(cmd.Context(), tasksRecent)
	if err != nil {
		return fmt.Errorf("loading task status: %w", err)
	}
	if tasksJSON {
		return printJSON(cmd, statuses)
	}

	if !schedulerConfig.Enabled {
		cmd.Println("Scheduler is disabled (scheduler.enabled = false).")
	}
	for i := range statuses {
		if i > 0 {
			cmd.Println()
		}
		printTaskStatus(cmd, &statuses[i])
	}
	return nil
}

func printTaskStatus(cmd *cobra.Command, st *domain.TaskStatus) {
	task := st.Task
	state := "enabled"
	if !task.Enabled {
		state = "disabled"
	}
	cmd.Printf("%s (%s, %s)\n", task.Name, task.ID, state)
	cmd.Printf("  Every:      %s\n", task.Interval)
	cmd.Printf("  Last run:   %s\n", formatTaskTime(task.LastRun, "never"))
	cmd.Printf("  Next run:   %s\n", formatTaskTime(task.NextRun, "when the scheduler starts"))
	if !task.Healthy() {
		cmd.Printf("  Last error: %s\n", task.LastError)
	}

	for _, r := range st.Recent {
		outcome := "ok"
		if !r.Success {
			outcome = "failed: " + r.Error
		}
		cmd.Printf("  - %s  %d item(s) in %s, %s\n",
			r.StartedAt.Local().Format(time.DateTime), r.ItemsProcessed, r.Duration().Round(time.Millisecond), outcome)
	}
}

func formatTaskTime(t time.Time, zero string) string {
	if t.IsZero() {
		return zero
	}
	return t.Local().Format(time.DateTime)
}
