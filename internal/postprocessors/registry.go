package postprocessors

import (
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var (
	// ErrUnknownProcessor is returned when a pipeline names an unregistered processor.
	ErrUnknownProcessor = errors.New("unknown processor")

	// ErrDuplicateProcessor is returned when a name is registered twice.
	ErrDuplicateProcessor = errors.New("processor already registered")
)

// BuilderFunc creates a processor from its section of the pipeline config.
// Values come from TOML or code, so numbers may arrive as int, int64 or float64.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry maps processor names to builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds a builder under name.
func (r *Registry) Register(name string, builder BuilderFunc) error {
	if _, ok := r.builders[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProcessor, name)
	}
	r.builders[name] = builder
	return nil
}

// Names returns the registered processor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build assembles a pipeline from cfg. An empty processor list means the
// chunker alone, since a document without chunks cannot be indexed.
func (r *Registry) Build(cfg domain.PipelineConfig) (*Pipeline, error) {
	names := cfg.Processors
	if len(names) == 0 {
		names = []string{chunkerName}
	}
	if names[0] != chunkerName {
		return nil, fmt.Errorf("pipeline must start with %s, got %s", chunkerName, names[0])
	}

	procs := make([]driven.PostProcessor, 0, len(names))
	for _, name := range names {
		builder, ok := r.builders[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProcessor, name)
		}
		proc, err := builder(cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", name, err)
		}
		procs = append(procs, proc)
	}
	return NewPipeline(procs...), nil
}
