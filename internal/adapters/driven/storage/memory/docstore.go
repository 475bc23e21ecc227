package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps documents and chunks in maps. It backs tests and
// storage.backend = "memory"; nothing survives the process.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk // by document ID, ordered by Index

	// owner maps chunk ID to document ID.
	owner map[string]string
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
		owner:     make(map[string]string),
	}
}

func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	s.documents[doc.ID] = *doc
	s.mu.Unlock()
	return nil
}

func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	doc, ok := s.documents[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	docs := slices.Collect(maps.Values(s.documents))
	s.mu.RUnlock()

	slices.SortFunc(docs, func(a, b domain.Document) int { return strings.Compare(a.ID, b.ID) })
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropChunksLocked(id)
	delete(s.documents, id)
	return nil
}

// SaveChunks groups chunks by DocumentID and swaps each group in whole.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	byDoc := make(map[string][]domain.Chunk)
	for _, c := range chunks {
		if c.DocumentID == "" {
			return domain.ErrInvalidInput
		}
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for docID, group := range byDoc {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Index < group[j].Index })
		s.dropChunksLocked(docID)
		s.chunks[docID] = group
		for _, c := range group {
			s.owner[c.ID] = docID
		}
	}
	return nil
}

func (s *DocumentStore) dropChunksLocked(docID string) {
	for _, c := range s.chunks[docID] {
		delete(s.owner, c.ID)
	}
	delete(s.chunks, docID)
}

// GetChunks returns a copy, empty for unknown documents.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Chunk{}, s.chunks[documentID]...), nil
}

func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docID, ok := s.owner[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for _, c := range s.chunks[docID] {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *DocumentStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, group := range s.chunks {
		n += len(group)
	}
	return n, nil
}
