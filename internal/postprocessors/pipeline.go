// Package postprocessors assembles the chunking pipeline run on every ingested document.
package postprocessors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

var (
	// ErrNilDocument is returned when the pipeline is given no document.
	ErrNilDocument = errors.New("document is nil")

	// ErrOversizedChunk is returned when a processor emits a chunk longer
	// than the pipeline's rune limit.
	ErrOversizedChunk = errors.New("chunk exceeds size limit")
)

// Pipeline runs processors in order and seals their output for indexing.
//
// Sealing drops blank chunks, then renumbers the rest so that IDs, indices
// and position metadata are contiguous and always point at the document
// being ingested, whatever the processors did along the way.
type Pipeline struct {
	processors []driven.PostProcessor
	maxRunes   int
}

// NewPipeline creates a pipeline running processors in the order given.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// WithMaxRunes rejects any sealed chunk longer than n runes. Zero disables
// the check.
func (p *Pipeline) WithMaxRunes(n int) *Pipeline {
	p.maxRunes = n
	return p
}

// Process chunks doc through every processor and returns the sealed chunks.
// The first processor receives nil chunks and is expected to create them.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	var chunks []domain.Chunk
	for _, proc := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		chunks, err = proc.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", proc.Name(), err)
		}
		logger.Debug("pipeline: %s produced %d chunks for %s", proc.Name(), len(chunks), doc.ID)
	}

	return p.seal(doc, chunks)
}

func (p *Pipeline) seal(doc *domain.Document, in []domain.Chunk) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, 0, len(in))
	for i := range in {
		if strings.TrimSpace(in[i].Content) == "" {
			continue
		}
		if p.maxRunes > 0 && utf8.RuneCountInString(in[i].Content) > p.maxRunes {
			return nil, fmt.Errorf("%w: %s chunk %d has %d runes, limit %d",
				ErrOversizedChunk, doc.ID, i, utf8.RuneCountInString(in[i].Content), p.maxRunes)
		}
		out = append(out, in[i])
	}

	for i := range out {
		out[i] = doc.ChunkAt(i, len(out), out[i].Content, out[i].Metadata)
	}
	return out, nil
}

// Processors returns the processor names in execution order.
func (p *Pipeline) Processors() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}
