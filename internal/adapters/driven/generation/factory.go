// Package generation provides factory functions for creating generation
// backends from settings.
package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/generation/anthropic"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/generation/breaker"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/generation/ollama"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/generation/openai"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for backend connectivity validation.
const pingTimeout = 5 * time.Second

// Ensure Validator implements the interface.
var _ driven.GenerationValidator = (*Validator)(nil)

// Options tune backend construction.
type Options struct {
	// Breaker configures the circuit breaker. Nil leaves the backend unguarded.
	Breaker *domain.BreakerSettings

	// Prompts supplies custom prompt templates. Nil uses the embedded defaults.
	Prompts driven.PromptStore

	// SkipPing skips the start-up connectivity check.
	SkipPing bool
}

// CreateBackend creates the backend selected by settings.
// Returns nil if the provider is not configured.
func CreateBackend(settings *domain.GenerationSettings) (driven.GenerationBackend, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollama.New(ollama.Config{
			BaseURL:     settings.BaseURL,
			Model:       settings.Model,
			MaxTokens:   settings.MaxTokens,
			Temperature: settings.Temperature,
		}), nil

	case domain.AIProviderOpenAI:
		return createOpenAI(settings)

	case domain.AIProviderAnthropic:
		return createAnthropic(settings)

	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", settings.Provider)
	}
}

// createOpenAI creates an OpenAI-compatible backend.
func createOpenAI(settings *domain.GenerationSettings) (driven.GenerationBackend, error) {
	b, err := openai.New(openai.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		MaxTokens:         settings.MaxTokens,
		Temperature:       settings.Temperature,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// createAnthropic creates an Anthropic backend.
func createAnthropic(settings *domain.GenerationSettings) (driven.GenerationBackend, error) {
	b, err := anthropic.New(anthropic.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		MaxTokens:         settings.MaxTokens,
		Temperature:       settings.Temperature,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateAndValidateBackend creates a backend, pings it and applies the
// options. Returns nil and no error if the provider is not configured.
func CreateAndValidateBackend(settings *domain.GenerationSettings, opts Options) (driven.GenerationBackend, error) {
	backend, err := CreateBackend(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'sercha-rag settings wizard' to fix",
			domain.ErrGenerationUnavailable, err)
	}
	if backend == nil {
		return nil, nil
	}

	if !opts.SkipPing {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()

		if err := backend.Ping(ctx); err != nil {
			backend.Close()
			return nil, fmt.Errorf("%w: backend unreachable (%w). Run 'sercha-rag settings wizard' to fix",
				domain.ErrGenerationUnavailable, err)
		}
	}

	if opts.Prompts != nil {
		if aware, ok := backend.(driven.PromptStoreAware); ok {
			aware.SetPromptStore(opts.Prompts)
		}
	}
	if opts.Breaker != nil {
		backend = breaker.Wrap(backend, *opts.Breaker)
	}
	return backend, nil
}

// ValidateSettings validates a generation configuration by creating a
// backend and pinging it. Intended for the settings wizard.
func ValidateSettings(settings *domain.GenerationSettings) error {
	backend, err := CreateBackend(settings)
	if err != nil {
		return err
	}
	if backend == nil {
		return nil
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return backend.Ping(ctx)
}

// Validator validates generation settings by pinging the provider.
type Validator struct{}

// NewValidator creates a new generation settings validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateGeneration pings the configured backend.
func (v *Validator) ValidateGeneration(config *domain.GenerationSettings) error {
	return ValidateSettings(config)
}
