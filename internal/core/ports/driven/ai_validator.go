package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// GenerationValidator verifies generation settings by testing connectivity
// to the configured backend.
type GenerationValidator interface {
	// ValidateGeneration pings the configured backend.
	// Returns nil if the configuration is valid or not configured.
	ValidateGeneration(config *domain.GenerationSettings) error
}
