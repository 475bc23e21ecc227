package services

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// directoryWorkers bounds concurrent file ingests in IngestDirectory.
const directoryWorkers = 4

// Extensions whose MIME type is not reliably known to the platform table.
var extensionMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".htm":      "text/html",
	".html":     "text/html",
}

// IngestService owns the path from raw text to indexed chunks:
// normalise, chunk, persist, index. The document store is authoritative;
// the index can always be rebuilt from it.
type IngestService struct {
	store    driven.DocumentStore
	index    driven.LexicalIndex
	pipeline driven.PostProcessorPipeline
	registry driven.NormaliserRegistry // nil: IngestFile is unavailable
	locks    *keyedMutex
	now      func() time.Time
}

// NewIngestService creates an ingest service.
func NewIngestService(
	store driven.DocumentStore,
	index driven.LexicalIndex,
	pipeline driven.PostProcessorPipeline,
	registry driven.NormaliserRegistry,
) *IngestService {
	return &IngestService{
		store:    store,
		index:    index,
		pipeline: pipeline,
		registry: registry,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// FileDocumentID derives a stable document ID from a file path, so a file
// keeps its ID across re-ingests and can be removed by path alone.
func FileDocumentID(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String(), nil
}

// MIMETypeFor returns the MIME type for a file name, without parameters.
// Returns an empty string when the extension is unknown.
func MIMETypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionMIMETypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return ""
	}
	return mediaType
}

// Ingest chunks and indexes raw text, replacing any prior version of docID.
// The metadata keys "title" and "uri" populate the document fields.
func (s *IngestService) Ingest(
	ctx context.Context, docID, text string, metadata map[string]any,
) (*domain.IngestResult, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}

	doc := &domain.Document{
		ID:       docID,
		MIMEType: "text/plain",
		Content:  text,
		Metadata: copyMetadata(metadata),
	}
	if title, ok := metadata[domain.MetaTitle].(string); ok {
		doc.Title = title
	}
	if uri, ok := metadata["uri"].(string); ok {
		doc.URI = uri
	}
	return s.ingestDocument(ctx, doc)
}

// IngestFile normalises a file by MIME type and ingests it.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*domain.IngestResult, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("%w: no normalisers registered", domain.ErrUnsupportedType)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	id, err := FileDocumentID(abs)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}

	raw := &domain.RawDocument{
		URI:      abs,
		MIMEType: MIMETypeFor(abs),
		Content:  content,
		Metadata: map[string]any{"path": abs},
	}
	result, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", abs, err)
	}

	doc := result.Document
	doc.ID = id
	doc.URI = abs
	if doc.MIMEType == "" {
		doc.MIMEType = raw.MIMEType
	}
	if doc.Title == "" {
		doc.Title = filepath.Base(abs)
	}
	return s.ingestDocument(ctx, &doc)
}

// IngestDirectory ingests every supported, non-hidden file under dir.
// Files are processed concurrently; failures are collected and returned
// together after every file has been attempted.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string) ([]domain.IngestResult, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("%w: no normalisers registered", domain.ErrUnsupportedType)
	}

	files, err := s.collectFiles(dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("ingest: %d candidate files under %s", len(files), dir)

	var (
		mu      sync.Mutex
		merr    *multierror.Error
		results = make([]*domain.IngestResult, len(files))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(directoryWorkers)
	for i, path := range files {
		g.Go(func() error {
			res, err := s.IngestFile(gctx, path)
			if err != nil {
				mu.Lock()
				merr = multierror.Append(merr, err)
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.IngestResult, 0, len(files))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	logger.Info("ingest: %d of %d files ingested from %s", len(out), len(files), dir)
	return out, merr.ErrorOrNil()
}

// collectFiles lists supported files under dir in lexical order.
func (s *IngestService) collectFiles(dir string) ([]string, error) {
	supported := make(map[string]bool)
	for _, t := range s.registry.SupportedMIMETypes() {
		supported[t] = true
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if supported[MIMETypeFor(path)] {
			files = append(files, path)
		} else {
			logger.Debug("ingest: skipping unsupported file %s", path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

// ingestDocument chunks, persists and indexes one document under its lock.
func (s *IngestService) ingestDocument(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error) {
	unlock := s.locks.lock(doc.ID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc.Checksum = crc32.ChecksumIEEE([]byte(doc.Content))
	now := s.now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	existing, err := s.store.GetDocument(ctx, doc.ID)
	switch {
	case err == nil:
		doc.CreatedAt = existing.CreatedAt
		if skip, n := s.unchanged(ctx, existing, doc); skip {
			logger.Debug("ingest: %s unchanged, skipping", doc.ID)
			return &domain.IngestResult{DocumentID: doc.ID, ChunkCount: n, Skipped: true}, nil
		}
	case errors.Is(err, domain.ErrNotFound):
		existing = nil
	default:
		return nil, fmt.Errorf("load document: %w", err)
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}

	// A document that now chunks to nothing must drop its old chunks.
	if existing != nil && len(chunks) == 0 {
		if err := s.store.DeleteDocument(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("clear document: %w", err)
		}
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.store.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	// Index last, so the index never holds chunks the store lacks.
	s.index.ReplaceChunks(doc.ID, chunks)

	logger.Debug("ingest: %s -> %d chunks", doc.ID, len(chunks))
	return &domain.IngestResult{DocumentID: doc.ID, ChunkCount: len(chunks)}, nil
}

// unchanged reports whether doc matches the stored version and its chunks
// are all still indexed.
func (s *IngestService) unchanged(ctx context.Context, existing, doc *domain.Document) (bool, int) {
	if existing.Checksum != doc.Checksum || existing.Content != doc.Content || existing.Title != doc.Title {
		return false, 0
	}
	chunks, err := s.store.GetChunks(ctx, doc.ID)
	if err != nil {
		return false, 0
	}
	for i := range chunks {
		if !s.index.Has(chunks[i].ID) {
			return false, 0
		}
	}
	return true, len(chunks)
}

// Remove deletes a document and its chunks from the store and the index.
func (s *IngestService) Remove(ctx context.Context, docID string) (bool, error) {
	unlock := s.locks.lock(docID)
	defer unlock()

	_, err := s.store.GetDocument(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		// Raw index entries may exist without a stored document.
		removed := s.index.DeleteChunks(docID) > 0
		return s.index.Delete(docID) || removed, nil
	}
	if err != nil {
		return false, fmt.Errorf("load document: %w", err)
	}

	if err := s.store.DeleteDocument(ctx, docID); err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	n := s.index.DeleteChunks(docID)
	s.index.Delete(docID)

	logger.Debug("ingest: removed %s (%d chunks)", docID, n)
	return true, nil
}

// RemoveFile removes the document ingested from path.
func (s *IngestService) RemoveFile(ctx context.Context, path string) (bool, error) {
	id, err := FileDocumentID(path)
	if err != nil {
		return false, err
	}
	return s.Remove(ctx, id)
}

// Rebuild re-indexes every stored chunk and drops index entries the store
// no longer backs. Entries are replaced per document, so queries running
// during a rebuild never see an empty index. Each document is reloaded and
// re-indexed under its lock; only entries present before the rebuild
// started are candidates for removal.
func (s *IngestService) Rebuild(ctx context.Context) (int, error) {
	defer logger.Timed("ingest: rebuild")()

	before := s.index.IDs()
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	backed := make(map[string]bool)
	total := 0
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.reindex(ctx, docs[i].ID, backed)
		if err != nil {
			return total, err
		}
		total += n
	}

	dropped := 0
	for _, id := range before {
		if backed[id] {
			continue
		}
		ok, err := s.dropOrphan(ctx, id)
		if err != nil {
			return total, err
		}
		if ok {
			dropped++
		}
	}

	logger.Info("ingest: rebuilt index from %d documents (%d chunks, %d orphans dropped)", len(docs), total, dropped)
	return total, nil
}

// reindex replaces docID's index entries with its stored chunks. A document
// removed since it was listed is skipped.
func (s *IngestService) reindex(ctx context.Context, docID string, backed map[string]bool) (int, error) {
	unlock := s.locks.lock(docID)
	defer unlock()

	if _, err := s.store.GetDocument(ctx, docID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("load document %s: %w", docID, err)
	}
	chunks, err := s.store.GetChunks(ctx, docID)
	if err != nil {
		return 0, fmt.Errorf("load chunks for %s: %w", docID, err)
	}
	s.index.ReplaceChunks(docID, chunks)

	for j := range chunks {
		backed[chunks[j].ID] = true
	}
	return len(chunks), nil
}

// dropOrphan deletes an index entry the store does not hold. It locks the
// entry's parent document and re-checks the store, since the parent may
// have been ingested after the rebuild listed documents.
func (s *IngestService) dropOrphan(ctx context.Context, id string) (bool, error) {
	key, ok := s.index.Parent(id)
	if !ok {
		return false, nil
	}
	if key == "" {
		key = id
	}
	unlock := s.locks.lock(key)
	defer unlock()

	_, err := s.store.GetChunk(ctx, id)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return false, fmt.Errorf("load chunk %s: %w", id, err)
	}
	return s.index.Delete(id), nil
}

// List returns every stored document.
func (s *IngestService) List(ctx context.Context) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *IngestService) Get(ctx context.Context, docID string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, docID)
}

// Chunks returns the chunks of a document in order.
func (s *IngestService) Chunks(ctx context.Context, docID string) ([]domain.Chunk, error) {
	if _, err := s.store.GetDocument(ctx, docID); err != nil {
		return nil, err
	}
	return s.store.GetChunks(ctx, docID)
}

// Search runs a raw lexical search.
func (s *IngestService) Search(query string, topK int) []domain.IndexHit {
	return s.index.Search(query, topK)
}

// Stats summarises the lexical index.
func (s *IngestService) Stats() domain.IndexStats {
	return s.index.Stats()
}

// CheckQuality compares the store with the index.
func (s *IngestService) CheckQuality(ctx context.Context) (*domain.QualityReport, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	report := &domain.QualityReport{
		Documents:      len(docs),
		IndexedEntries: s.index.Len(),
	}
	stored := make(map[string]bool)
	for i := range docs {
		chunks, err := s.store.GetChunks(ctx, docs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("load chunks for %s: %w", docs[i].ID, err)
		}
		if len(chunks) == 0 {
			report.EmptyDocuments = append(report.EmptyDocuments, docs[i].ID)
		}
		for j := range chunks {
			stored[chunks[j].ID] = true
			if !s.index.Has(chunks[j].ID) {
				report.MissingFromIndex = append(report.MissingFromIndex, chunks[j].ID)
			}
		}
		report.Chunks += len(chunks)
	}
	for _, id := range s.index.IDs() {
		if !stored[id] {
			report.Orphaned = append(report.Orphaned, id)
		}
	}
	sort.Strings(report.MissingFromIndex)
	return report, nil
}

func copyMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// keyedMutex serialises work per key; entries are dropped when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// lock acquires the mutex for key and returns its release func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
