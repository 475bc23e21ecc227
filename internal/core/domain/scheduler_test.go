package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	assert.True(t, config.Enabled)
	assert.NotNil(t, config.TaskConfigs)
	assert.Len(t, config.TaskConfigs, 2)

	rebuildCfg := config.TaskConfigs[TaskIDIndexRebuild]
	assert.True(t, rebuildCfg.Enabled)
	assert.Equal(t, 1*time.Hour, rebuildCfg.Interval)

	pruneCfg := config.TaskConfigs[TaskIDHistoryPrune]
	assert.True(t, pruneCfg.Enabled)
	assert.Equal(t, 24*time.Hour, pruneCfg.Interval)
}

func TestSchedulerConfig_GetTaskConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	cfg := config.GetTaskConfig(TaskIDIndexRebuild)
	assert.True(t, cfg.Enabled)

	unknownCfg := config.GetTaskConfig("unknown-task")
	assert.False(t, unknownCfg.Enabled)
	assert.Equal(t, time.Duration(0), unknownCfg.Interval)
}

func TestSchedulerConfig_GetTaskConfig_NilMap(t *testing.T) {
	config := SchedulerConfig{
		Enabled:     true,
		TaskConfigs: nil,
	}

	cfg := config.GetTaskConfig("any-task")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Interval)
}

func TestScheduledTask_Due(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task ScheduledTask
		want bool
	}{
		{name: "never scheduled", task: ScheduledTask{Enabled: true}, want: true},
		{name: "past", task: ScheduledTask{Enabled: true, NextRun: now.Add(-time.Second)}, want: true},
		{name: "exactly now", task: ScheduledTask{Enabled: true, NextRun: now}, want: true},
		{name: "future", task: ScheduledTask{Enabled: true, NextRun: now.Add(time.Second)}, want: false},
		{name: "disabled", task: ScheduledTask{NextRun: now.Add(-time.Hour)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Due(now))
		})
	}
}

func TestScheduledTask_Healthy(t *testing.T) {
	assert.True(t, (&ScheduledTask{}).Healthy())
	assert.False(t, (&ScheduledTask{LastError: "boom"}).Healthy())
}

func TestTaskResult_Duration(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	r := TaskResult{StartedAt: start, EndedAt: start.Add(1500 * time.Millisecond)}
	assert.Equal(t, 1500*time.Millisecond, r.Duration())

	unfinished := TaskResult{StartedAt: start}
	assert.Zero(t, unfinished.Duration())
}

func TestTaskName(t *testing.T) {
	assert.Equal(t, "Index Rebuild", TaskName(TaskIDIndexRebuild))
	assert.Equal(t, "History Prune", TaskName(TaskIDHistoryPrune))
	assert.Equal(t, "custom", TaskName("custom"))
	assert.Equal(t, []string{TaskIDIndexRebuild, TaskIDHistoryPrune}, BuiltinTaskIDs())
}
