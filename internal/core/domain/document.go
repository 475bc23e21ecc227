package domain

import (
	"fmt"
	"time"
)

// Document represents a source document kept in the durable store.
// The lexical index is rebuilt from documents, so this is the source of truth.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path, URL, etc). Empty for raw text.
	URI string

	// Title is the human-readable title.
	Title string

	// MIMEType is the content type the document was normalised from.
	MIMEType string

	// Content is the full text content after normalisation.
	// This is the complete document text before chunking.
	Content string

	// Checksum is a CRC32 of Content, used to skip unchanged re-ingests.
	Checksum uint32

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last ingested.
	UpdatedAt time.Time
}

// Chunk is a bounded contiguous fragment of a document.
// Chunks are immutable once created by the chunker.
type Chunk struct {
	// ID is the unique identifier for the chunk ("<docID>_chunk_<index>").
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the ordinal position within the document.
	// Unique per document and strictly increasing in emission order.
	Index int

	// Content is the text content of this chunk.
	Content string

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Chunk metadata keys written by the chunker.
const (
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaParentDocID = "parent_doc_id"
	MetaTitle       = "title"
)

// ChunkID returns the ID of the index-th chunk of a document.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, index)
}

// ChunkAt builds the index-th of total chunks of d. Entries in extra are
// kept unless they collide with the standard metadata keys.
func (d *Document) ChunkAt(index, total int, content string, extra map[string]any) Chunk {
	meta := make(map[string]any, len(extra)+4)
	for k, v := range extra {
		meta[k] = v
	}
	meta[MetaChunkIndex] = index
	meta[MetaTotalChunks] = total
	meta[MetaParentDocID] = d.ID
	if d.Title != "" {
		meta[MetaTitle] = d.Title
	}

	return Chunk{
		ID:         ChunkID(d.ID, index),
		DocumentID: d.ID,
		Index:      index,
		Content:    content,
		Metadata:   meta,
	}
}

// IngestResult reports the outcome of ingesting one document.
type IngestResult struct {
	// DocumentID is the ingested document.
	DocumentID string

	// ChunkCount is the number of chunks produced and indexed.
	ChunkCount int

	// Skipped is true when the content was unchanged since the last ingest.
	Skipped bool
}
