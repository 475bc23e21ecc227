package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Ingestion turns uploaded bytes into indexable chunks in two stages:
// a Normaliser extracts plain text for the MIME type, then a
// PostProcessorPipeline splits that text into chunks.

// Normaliser extracts text from one family of MIME types.
type Normaliser interface {
	SupportedMIMETypes() []string

	// Priority breaks ties when several normalisers accept a type.
	// Format-specific normalisers use 50 and above; catch-alls stay below 10.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult carries the extracted document. Content is plain text;
// Chunks are produced later by the pipeline.
type NormaliseResult struct {
	Document domain.Document
}

// NormaliserRegistry dispatches a raw upload to the highest priority
// normaliser for its MIME type, or fails with domain.ErrUnsupportedType.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
	Register(n Normaliser)

	// SupportedMIMETypes lists every type at least one normaliser accepts.
	SupportedMIMETypes() []string
}

// PostProcessor is one pipeline stage. The chunker stage ignores its
// chunks argument and creates chunks from doc.Content; later stages
// rewrite the chunks they are given.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chunks a normalised document. Returned chunks are
// numbered 0..n-1 and carry the document ID.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
