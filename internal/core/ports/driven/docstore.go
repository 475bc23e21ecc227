package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DocumentStore is the durable copy of every ingested document and its
// chunks. The lexical index lives in memory and is rebuilt from here on
// start-up and by the index-rebuild task.
//
// Lookups of missing IDs return domain.ErrNotFound.
type DocumentStore interface {
	// SaveDocument upserts by ID.
	SaveDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments is ordered by ID.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument also drops the document's chunks.
	DeleteDocument(ctx context.Context, id string) error

	// SaveChunks swaps out all existing chunks of each DocumentID present
	// in chunks, so re-ingesting a shorter document leaves no stale tail.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks is ordered by Index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)
	CountChunks(ctx context.Context) (int, error)
}
