package domain

import "time"

// Built-in maintenance tasks.
const (
	// TaskIDIndexRebuild re-indexes every stored chunk so the in-memory
	// lexical index converges with the document store.
	TaskIDIndexRebuild = "index-rebuild"

	// TaskIDHistoryPrune deletes query history older than the retention period.
	TaskIDHistoryPrune = "history-prune"
)

// BuiltinTaskIDs lists the maintenance tasks in display order.
func BuiltinTaskIDs() []string {
	return []string{TaskIDIndexRebuild, TaskIDHistoryPrune}
}

// TaskName returns the display name of a built-in task, or the ID itself.
func TaskName(id string) string {
	switch id {
	case TaskIDIndexRebuild:
		return "Index Rebuild"
	case TaskIDHistoryPrune:
		return "History Prune"
	default:
		return id
	}
}

// ScheduledTask is the persisted state of a maintenance task.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time

	// LastError is empty when the most recent run succeeded.
	LastError string
}

// Due reports whether an enabled task should run at now. A task that has
// never been scheduled is due immediately.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && (t.NextRun.IsZero() || !t.NextRun.After(now))
}

// Healthy reports whether the last run, if any, succeeded.
func (t *ScheduledTask) Healthy() bool {
	return t.LastError == ""
}

// TaskResult records one run of a task.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed counts chunks re-indexed or history records pruned.
	ItemsProcessed int
}

// Duration returns how long the run took.
func (r *TaskResult) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// TaskStatus pairs a task with its most recent runs, newest first.
type TaskStatus struct {
	Task   ScheduledTask
	Recent []TaskResult
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	TaskConfigs map[string]TaskConfig
}

// TaskConfig configures a single task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the configuration for a task, or the zero value.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig rebuilds the index hourly and prunes history daily.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDIndexRebuild: {Enabled: true, Interval: time.Hour},
			TaskIDHistoryPrune: {Enabled: true, Interval: 24 * time.Hour},
		},
	}
}
