// Package chunker splits document text into overlapping, size-bounded chunks.
package chunker

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Sizes are in runes.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Processor is the first pipeline stage. It ignores incoming chunks and
// cuts doc.Content with Split.
type Processor struct {
	chunkSize int
	overlap   int
}

type Option func(*Processor)

// WithChunkSize ignores non-positive sizes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap ignores negative overlaps. An overlap that does not fit the
// chunk size is reduced by New.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

func New(opts ...Option) *Processor {
	p := &Processor{chunkSize: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(p)
	}
	p.chunkSize, p.overlap = normaliseParams(p.chunkSize, p.overlap)
	return p
}

func (p *Processor) Name() string { return "chunker" }

func (p *Processor) ChunkSize() int { return p.chunkSize }

func (p *Processor) Overlap() int { return p.overlap }

func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	pieces := Split(doc.Content, p.chunkSize, p.overlap)
	out := make([]domain.Chunk, len(pieces))
	for i, text := range pieces {
		out[i] = doc.ChunkAt(i, len(pieces), text, nil)
	}
	return out, nil
}
