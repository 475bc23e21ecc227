// Package watch keeps the knowledge base in step with a directory tree.
//
// Created and modified files are ingested; removed or renamed files have
// their documents removed. Bursts of events for one path are debounced and
// the action is decided from the file's state when the timer fires.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// DefaultDebounce is how long a path must be quiet before it is processed.
const DefaultDebounce = 300 * time.Millisecond

// Ingester is the part of the ingest service the watcher drives.
type Ingester interface {
	IngestFile(ctx context.Context, path string) (*domain.IngestResult, error)
	IngestDirectory(ctx context.Context, dir string) ([]domain.IngestResult, error)
	Remove(ctx context.Context, docID string) (bool, error)
	RemoveFile(ctx context.Context, path string) (bool, error)
	List(ctx context.Context) ([]domain.Document, error)
}

// Action describes what the watcher did for a path.
type Action string

// Watcher actions.
const (
	ActionIngested  Action = "ingested"
	ActionUnchanged Action = "unchanged"
	ActionRemoved   Action = "removed"
	ActionFailed    Action = "failed"
)

// Event reports the outcome of processing one path.
type Event struct {
	Path   string
	Action Action
	Err    error
}

// SyncReport summarises a full reconciliation.
type SyncReport struct {
	Ingested  int
	Unchanged int
	Removed   int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period per path.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithNotify registers a callback invoked after each processed path.
func WithNotify(fn func(Event)) Option {
	return func(w *Watcher) {
		w.notify = fn
	}
}

// Watcher mirrors a directory tree into the knowledge base.
type Watcher struct {
	ingest   Ingester
	root     string
	debounce time.Duration
	notify   func(Event)

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
}

// New creates a watcher for root. Nothing is watched until Run is called.
func New(ingest Ingester, root string, opts ...Option) (*Watcher, error) {
	if ingest == nil {
		return nil, fmt.Errorf("%w: ingester is required", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, abs)
	}

	w := &Watcher{
		ingest:   ingest,
		root:     abs,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Root returns the absolute directory being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Sync ingests every supported file under the root and removes documents
// whose files no longer exist there. All failures are returned together.
func (w *Watcher) Sync(ctx context.Context) (SyncReport, error) {
	var (
		report SyncReport
		errs   *multierror.Error
	)

	results, err := w.ingest.IngestDirectory(ctx, w.root)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	for i := range results {
		if results[i].Skipped {
			report.Unchanged++
		} else {
			report.Ingested++
		}
	}

	removed, err := w.removeStale(ctx, w.root)
	report.Removed = removed
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	return report, errs.ErrorOrNil()
}

// removeStale removes documents under dir whose source file is gone.
func (w *Watcher) removeStale(ctx context.Context, dir string) (int, error) {
	docs, err := w.ingest.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	var (
		removed int
		errs    *multierror.Error
	)
	for i := range docs {
		if !within(dir, docs[i].URI) {
			continue
		}
		if _, err := os.Stat(docs[i].URI); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		ok, err := w.ingest.Remove(ctx, docs[i].ID)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("remove %s: %w", docs[i].URI, err))
			continue
		}
		if ok {
			removed++
			w.emit(Event{Path: docs[i].URI, Action: ActionRemoved})
		}
	}
	return removed, errs.ErrorOrNil()
}

// Run watches the tree until ctx is cancelled. Pending paths are dropped
// and in-flight work is waited for before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}
	logger.Info("watch: watching %s", w.root)

	defer w.shutdown()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if hidden(ev.Name) || ev.Op == fsnotify.Chmod {
		return
	}
	logger.Debug("watch: %s", ev)

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, ev.Name); err != nil {
				logger.Warn("watch: %v", err)
			}
		}
	}
	w.schedule(ctx, ev.Name)
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		if w.closed {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		w.process(ctx, path)
	})
}

func (w *Watcher) process(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		w.processRemoval(ctx, path)
	case err != nil:
		w.emit(Event{Path: path, Action: ActionFailed, Err: err})
	case info.IsDir():
		results, err := w.ingest.IngestDirectory(ctx, path)
		for i := range results {
			w.emit(Event{Path: path, Action: actionFor(&results[i])})
		}
		if err != nil {
			w.emit(Event{Path: path, Action: ActionFailed, Err: err})
		}
	default:
		result, err := w.ingest.IngestFile(ctx, path)
		if errors.Is(err, domain.ErrUnsupportedType) {
			logger.Debug("watch: skipping unsupported %s", path)
			return
		}
		if err != nil {
			w.emit(Event{Path: path, Action: ActionFailed, Err: err})
			return
		}
		w.emit(Event{Path: path, Action: actionFor(result)})
	}
}

// processRemoval handles a vanished path, which may have been a file or a
// whole directory.
func (w *Watcher) processRemoval(ctx context.Context, path string) {
	removed, err := w.ingest.RemoveFile(ctx, path)
	if err != nil {
		w.emit(Event{Path: path, Action: ActionFailed, Err: err})
		return
	}
	if removed {
		w.emit(Event{Path: path, Action: ActionRemoved})
		return
	}
	if _, err := w.removeStale(ctx, path); err != nil {
		w.emit(Event{Path: path, Action: ActionFailed, Err: err})
	}
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	w.closed = true
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) emit(ev Event) {
	if ev.Err != nil {
		logger.Warn("watch: %s: %v", ev.Path, ev.Err)
	}
	if w.notify != nil {
		w.notify(ev)
	}
}

func actionFor(r *domain.IngestResult) Action {
	if r.Skipped {
		return ActionUnchanged
	}
	return ActionIngested
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// within reports whether path lies strictly under dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
