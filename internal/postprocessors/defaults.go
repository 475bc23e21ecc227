package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

const chunkerName = "chunker"

// DefaultRegistry returns a registry holding the built-in processors.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(chunkerName, buildChunker) // empty registry, cannot collide
	return r
}

// BuildPipeline builds the ingest pipeline described by cfg from the
// built-in processors. Sealed chunks are held to the chunker's effective
// size, so a misbehaving later processor cannot grow them past it.
func BuildPipeline(cfg domain.PipelineConfig) (*Pipeline, error) {
	p, err := DefaultRegistry().Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	if c, ok := p.processors[0].(*chunker.Processor); ok {
		p.WithMaxRunes(c.ChunkSize())
	}
	return p, nil
}

// buildChunker reads chunk_size and overlap. A missing chunk_size keeps the
// chunker default; an explicit overlap of zero is honoured.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := intValue(cfg, "chunk_size"); ok && size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := intValue(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return chunker.New(opts...), nil
}

func intValue(cfg map[string]any, key string) (int, bool) {
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
