package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// taskResultsKept is how many results per task the store retains.
const taskResultsKept = 100

// Rebuilder re-indexes the corpus from the durable store.
type Rebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// Pruner removes expired history.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// taskFunc runs one task and reports how many items it processed.
type taskFunc func(ctx context.Context) (int, error)

// Scheduler runs the maintenance tasks on their intervals and keeps their
// state in a SchedulerStore.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	tasks  map[string]taskFunc
	tick   time.Duration

	mu       sync.Mutex
	running  bool
	inFlight map[string]bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler. A nil rebuilder or pruner leaves the
// matching task as a no-op.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	rebuilder Rebuilder,
	pruner Pruner,
) *Scheduler {
	s := &Scheduler{
		config:   config,
		store:    store,
		tasks:    make(map[string]taskFunc),
		tick:     time.Minute,
		inFlight: make(map[string]bool),
	}
	if rebuilder != nil {
		s.tasks[domain.TaskIDIndexRebuild] = rebuilder.Rebuild
	}
	if pruner != nil {
		s.tasks[domain.TaskIDHistoryPrune] = pruner.Prune
	}
	return s
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled. A disabled scheduler returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		log.Printf("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler, waiting for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// initialiseTasks ensures every built-in task exists in the store with
// the configured interval and enabled flag.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	for _, id := range domain.BuiltinTaskIDs() {
		if err := s.ensureTask(ctx, id, domain.TaskName(id), s.config.GetTaskConfig(id)); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task == nil && !cfg.Enabled {
		return nil
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		if cfg.Interval > 0 && task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := tasks[i]
		if task.Due(now) {
			s.runTask(ctx, &task)
		}
	}
}

// runTask executes a single task in the background. A task still running
// from a previous tick is not started again.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	fn, ok := s.tasks[task.ID]
	if !ok {
		log.Printf("scheduler: unknown task ID: %s", task.ID)
		return
	}

	s.mu.Lock()
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inFlight[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		n, err := fn(ctx)
		result.ItemsProcessed = n
		result.EndedAt = time.Now()
		if err != nil {
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		// State is saved even if ctx was cancelled mid-run.
		saveCtx := context.WithoutCancel(ctx)
		if saveErr := s.store.SaveTask(saveCtx, task); saveErr != nil {
			log.Printf("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(saveCtx, result); recordErr != nil {
			log.Printf("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(saveCtx, taskResultsKept); pruneErr != nil {
			log.Printf("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// Status reports the built-in tasks and their latest runs. A task the
// store has never seen is described by its configuration.
func (s *Scheduler) Status(ctx context.Context, recent int) ([]domain.TaskStatus, error) {
	out := make([]domain.TaskStatus, 0, len(domain.BuiltinTaskIDs()))
	for _, id := range domain.BuiltinTaskIDs() {
		task, err := s.store.GetTask(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading task %s: %w", id, err)
		}
		if task == nil {
			cfg := s.config.GetTaskConfig(id)
			task = &domain.ScheduledTask{
				ID:       id,
				Name:     domain.TaskName(id),
				Interval: cfg.Interval,
				Enabled:  s.config.Enabled && cfg.Enabled,
			}
		}

		st := domain.TaskStatus{Task: *task}
		if recent > 0 {
			st.Recent, err = s.store.GetTaskHistory(ctx, id, recent)
			if err != nil {
				return nil, fmt.Errorf("loading history for %s: %w", id, err)
			}
		}
		out = append(out, st)
	}
	return out, nil
}
