package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestService manages the document corpus and the lexical index built from it.
type IngestService interface {
	// Ingest chunks and indexes raw text under docID, replacing any prior
	// version of the document.
	Ingest(ctx context.Context, docID, text string, metadata map[string]any) (*domain.IngestResult, error)

	// IngestFile normalises a file by MIME type and ingests it.
	// The document ID is derived from the absolute path.
	IngestFile(ctx context.Context, path string) (*domain.IngestResult, error)

	// IngestDirectory ingests every supported file under dir.
	// Per-file failures are aggregated; successful files are still ingested.
	IngestDirectory(ctx context.Context, dir string) ([]domain.IngestResult, error)

	// Remove deletes a document and all its chunks from store and index.
	// Returns false if the document did not exist.
	Remove(ctx context.Context, docID string) (bool, error)

	// RemoveFile removes the document ingested from path.
	RemoveFile(ctx context.Context, path string) (bool, error)

	// Rebuild clears the index and re-indexes every stored chunk.
	// Returns the number of chunks indexed.
	Rebuild(ctx context.Context) (int, error)

	// List returns every stored document.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, docID string) (*domain.Document, error)

	// Chunks returns the chunks of a document in order.
	Chunks(ctx context.Context, docID string) ([]domain.Chunk, error)

	// Search runs a raw lexical search against the index.
	Search(query string, topK int) []domain.IndexHit

	// Stats summarises the lexical index.
	Stats() domain.IndexStats

	// CheckQuality compares the durable store with the index.
	CheckQuality(ctx context.Context) (*domain.QualityReport, error)
}
