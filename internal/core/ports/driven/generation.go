package driven

import "context"

// GenerationBackend produces answers from a language model.
// Timeouts are carried by ctx; implementations must honour cancellation.
//
// Implementations include:
//   - OpenAI-compatible /chat/completions APIs
//   - Anthropic messages API
//   - Ollama (local models)
type GenerationBackend interface {
	// Generate answers a bare prompt with no retrieved context.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateWithContext answers a question grounded in the supplied
	// context text (the assembled source chunks).
	GenerateWithContext(ctx context.Context, question, context string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the backend is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
