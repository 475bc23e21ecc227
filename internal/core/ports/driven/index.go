package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// LexicalIndex is an in-memory keyword index over chunk text.
// Readers never block writers; all methods are safe for concurrent use.
type LexicalIndex interface {
	// Upsert indexes content under docID, replacing any prior entry.
	// An empty docID is rejected with Success=false.
	Upsert(docID, content string, metadata map[string]any) domain.IndexResult

	// ReplaceChunks removes every entry whose parent document is parentID
	// and indexes chunks in their place, in a single update.
	ReplaceChunks(parentID string, chunks []domain.Chunk) domain.IndexResult

	// Search returns up to topK entries with a positive score, best first.
	Search(query string, topK int) []domain.IndexHit

	// Delete removes one entry. Returns false if it was absent.
	Delete(docID string) bool

	// DeleteChunks removes every entry whose parent document is parentID
	// and returns how many were removed.
	DeleteChunks(parentID string) int

	// Parent returns the parent document of an entry, empty for raw
	// entries. ok is false when docID is not indexed.
	Parent(docID string) (parent string, ok bool)

	// Has reports whether docID is indexed.
	Has(docID string) bool

	// IDs returns indexed entry IDs in insertion order.
	IDs() []string

	// Len returns the number of indexed entries.
	Len() int

	// Stats summarises the index.
	Stats() domain.IndexStats

	// Clear removes every entry.
	Clear()
}
