package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestSchedulerStore_Tasks(t *testing.T) {
	ctx := context.Background()
	s := NewSchedulerStore()

	task, err := s.GetTask(ctx, domain.TaskIDIndexRebuild)
	require.NoError(t, err)
	assert.Nil(t, task)

	require.NoError(t, s.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDIndexRebuild, Interval: time.Hour, Enabled: true}))
	require.NoError(t, s.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDHistoryPrune, Interval: 24 * time.Hour}))

	task, err = s.GetTask(ctx, domain.TaskIDIndexRebuild)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, time.Hour, task.Interval)

	tasks, err := s.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	require.NoError(t, s.DeleteTask(ctx, domain.TaskIDHistoryPrune))
	tasks, err = s.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSchedulerStore_SaveTask_Invalid(t *testing.T) {
	s := NewSchedulerStore()

	assert.ErrorIs(t, s.SaveTask(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.SaveTask(context.Background(), &domain.ScheduledTask{}), domain.ErrInvalidInput)
}

func TestSchedulerStore_HistoryAndPrune(t *testing.T) {
	ctx := context.Background()
	s := NewSchedulerStore()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := range 5 {
		require.NoError(t, s.RecordResult(ctx, &domain.TaskResult{
			TaskID:    domain.TaskIDIndexRebuild,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Success:   true,
		}))
	}
	require.NoError(t, s.RecordResult(ctx, &domain.TaskResult{TaskID: domain.TaskIDHistoryPrune, StartedAt: base}))

	history, err := s.GetTaskHistory(ctx, domain.TaskIDIndexRebuild, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, base.Add(4*time.Minute), history[0].StartedAt)

	require.NoError(t, s.PruneHistory(ctx, 3))

	history, err = s.GetTaskHistory(ctx, domain.TaskIDIndexRebuild, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, base.Add(2*time.Minute), history[2].StartedAt)

	other, err := s.GetTaskHistory(ctx, domain.TaskIDHistoryPrune, 0)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSchedulerStore_DeleteTaskDropsResults(t *testing.T) {
	ctx := context.Background()
	s := NewSchedulerStore()
	require.NoError(t, s.RecordResult(ctx, &domain.TaskResult{TaskID: "a"}))
	require.NoError(t, s.RecordResult(ctx, &domain.TaskResult{TaskID: "b"}))

	require.NoError(t, s.DeleteTask(ctx, "a"))

	history, err := s.GetTaskHistory(ctx, "a", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}
