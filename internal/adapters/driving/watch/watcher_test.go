package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// fakeIngester records calls and keeps documents keyed by path.
type fakeIngester struct {
	mu        sync.Mutex
	docs      map[string]domain.Document
	ingested  []string
	removed   []string
	dirResult []domain.IngestResult
	dirErr    error
	fileErr   error
}

func newFakeIngester() *fakeIngester {
	return &fakeIngester{docs: make(map[string]domain.Document)}
}

func (f *fakeIngester) IngestFile(_ context.Context, path string) (*domain.IngestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fileErr != nil {
		return nil, f.fileErr
	}
	f.ingested = append(f.ingested, path)
	f.docs[path] = domain.Document{ID: "id:" + path, URI: path}
	return &domain.IngestResult{DocumentID: "id:" + path, ChunkCount: 1}, nil
}

func (f *fakeIngester) IngestDirectory(_ context.Context, _ string) ([]domain.IngestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirResult, f.dirErr
}

func (f *fakeIngester) Remove(_ context.Context, docID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for path, doc := range f.docs {
		if doc.ID == docID {
			delete(f.docs, path)
			f.removed = append(f.removed, path)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeIngester) RemoveFile(ctx context.Context, path string) (bool, error) {
	return f.Remove(ctx, "id:"+path)
}

func (f *fakeIngester) List(_ context.Context) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeIngester) ingestedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ingested...)
}

func (f *fakeIngester) removedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func TestNew_Validation(t *testing.T) {
	dir := t.TempDir()

	_, err := New(nil, dir)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(newFakeIngester(), filepath.Join(dir, "missing"))
	assert.Error(t, err)

	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = New(newFakeIngester(), file)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	w, err := New(newFakeIngester(), dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(w.Root()))
}

func TestSync_CountsAndRemovesStale(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.md")
	require.NoError(t, os.WriteFile(kept, []byte("# kept"), 0o600))
	gone := filepath.Join(dir, "gone.md")
	outside := "/elsewhere/other.md"

	ing := newFakeIngester()
	ing.docs[kept] = domain.Document{ID: "kept", URI: kept}
	ing.docs[gone] = domain.Document{ID: "gone", URI: gone}
	ing.docs[outside] = domain.Document{ID: "outside", URI: outside}
	ing.docs["text"] = domain.Document{ID: "text"}
	ing.dirResult = []domain.IngestResult{
		{DocumentID: "kept", Skipped: true},
		{DocumentID: "new", ChunkCount: 2},
	}

	w, err := New(ing, dir)
	require.NoError(t, err)

	report, err := w.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SyncReport{Ingested: 1, Unchanged: 1, Removed: 1}, report)
	assert.Equal(t, []string{gone}, ing.removedPaths())
}

func TestSync_AggregatesErrors(t *testing.T) {
	ing := newFakeIngester()
	ing.dirErr = errors.New("bad file")
	ing.dirResult = []domain.IngestResult{{DocumentID: "ok"}}

	w, err := New(ing, t.TempDir())
	require.NoError(t, err)

	report, err := w.Sync(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad file")
	assert.Equal(t, 1, report.Ingested)
}

func TestRun_IngestsAndRemovesFiles(t *testing.T) {
	dir := t.TempDir()
	ing := newFakeIngester()

	var (
		mu     sync.Mutex
		events []Event
	)
	w, err := New(ing, dir,
		WithDebounce(20*time.Millisecond),
		WithNotify(func(ev Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	path := filepath.Join(dir, "notes.txt")
	// The watch is registered asynchronously; keep touching the file until
	// the first event is seen.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("hello"), 0o600)
		return len(ing.ingestedPaths()) > 0
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, path, ing.ingestedPaths()[0])

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		return len(ing.removedPaths()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, ActionIngested, events[0].Action)
	assert.Equal(t, ActionRemoved, events[len(events)-1].Action)
}

func TestRun_IgnoresHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	ing := newFakeIngester()
	w, err := New(ing, dir, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".swap"), []byte("x"), 0o600))
	time.Sleep(100 * time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, ing.ingestedPaths())
}

func TestProcess_UnsupportedTypeIsSilent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89}, 0o600))

	ing := newFakeIngester()
	ing.fileErr = domain.ErrUnsupportedType
	var events []Event
	w, err := New(ing, dir, WithNotify(func(ev Event) { events = append(events, ev) }))
	require.NoError(t, err)

	w.process(context.Background(), path)

	assert.Empty(t, events)
}

func TestProcess_DirectoryRemoval(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	ing := newFakeIngester()
	ing.docs[filepath.Join(sub, "a.md")] = domain.Document{ID: "a", URI: filepath.Join(sub, "a.md")}
	ing.docs[filepath.Join(sub, "b.md")] = domain.Document{ID: "b", URI: filepath.Join(sub, "b.md")}
	ing.docs[filepath.Join(dir, "c.md")] = domain.Document{ID: "c", URI: filepath.Join(dir, "c.md")}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.md"), []byte("c"), 0o600))

	w, err := New(ing, dir)
	require.NoError(t, err)

	w.process(context.Background(), sub)

	assert.ElementsMatch(t, []string{filepath.Join(sub, "a.md"), filepath.Join(sub, "b.md")}, ing.removedPaths())
}

func TestWithin(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{"/a", "/a/b.md", true},
		{"/a", "/a/b/c.md", true},
		{"/a", "/a", false},
		{"/a", "/ab/c.md", false},
		{"/a", "/b/c.md", false},
		{"/a", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, within(tt.dir, tt.path), "%s in %s", tt.path, tt.dir)
	}
}
