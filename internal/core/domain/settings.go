package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a generation backend provider.
type AIProvider string

// Available generation providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible /chat/completions API
	// (OpenAI, Poe, LM Studio, vLLM).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic messages API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud or self-hosted)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// GenerationSettings configures the generation backend.
type GenerationSettings struct {
	// Provider is the backend provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Timeout bounds a single generation call.
	Timeout time.Duration

	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the generation provider is set up.
func (g GenerationSettings) IsConfigured() bool {
	if !g.Provider.IsValid() {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings configures document chunking.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of trailing characters carried into the next chunk.
	Overlap int
}

// RetrievalSettings configures RAG retrieval.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int
}

// CacheSettings configures the query cache.
type CacheSettings struct {
	// TTL is how long a cached answer stays valid.
	TTL time.Duration

	// Capacity is the maximum number of cached answers.
	Capacity int
}

// BreakerSettings configures the circuit breaker around the generation backend.
type BreakerSettings struct {
	// Window is the minimum number of calls observed before the breaker may trip.
	Window int

	// FailureRatio trips the breaker when failures/calls reaches it.
	FailureRatio float64

	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration

	// HalfOpenCalls is the number of probe calls allowed while half-open.
	HalfOpenCalls int

	// Interval clears the rolling counts while closed.
	Interval time.Duration
}

// HistorySettings configures query history retention.
type HistorySettings struct {
	// RetentionDays removes records older than this. Zero keeps everything.
	RetentionDays int
}

// StorageBackend selects the durable store implementation.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite StorageBackend = "sqlite"
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageSQLite || b == StorageMemory
}

// AppSettings holds all application settings.
type AppSettings struct {
	Generation GenerationSettings
	Chunking   ChunkingSettings
	Retrieval  RetrievalSettings
	Cache      CacheSettings
	Breaker    BreakerSettings
	History    HistorySettings
	Storage    StorageBackend
	Scheduler  SchedulerConfig
}

// DefaultAppSettings returns settings with sensible defaults.
// The generation provider is left unconfigured; every answer falls back
// until the user sets one up via the settings wizard or config file.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Generation: GenerationSettings{
			Timeout:     30 * time.Second,
			MaxTokens:   4000,
			Temperature: 0.7,
		},
		Chunking: ChunkingSettings{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: RetrievalSettings{
			TopK: DefaultTopK,
		},
		Cache: CacheSettings{
			TTL:      10 * time.Minute,
			Capacity: 512,
		},
		Breaker: BreakerSettings{
			Window:        10,
			FailureRatio:  0.5,
			OpenTimeout:   30 * time.Second,
			HalfOpenCalls: 5,
			Interval:      60 * time.Second,
		},
		History: HistorySettings{
			RetentionDays: 30,
		},
		Storage:   StorageSQLite,
		Scheduler: DefaultSchedulerConfig(),
	}
}

// AllGenerationProviders returns providers that can answer questions.
func AllGenerationProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultGenerationModels returns default models for each provider.
func DefaultGenerationModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor builds the ingest pipeline configuration from chunking settings.
func PipelineConfigFor(c ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": c.Size,
				"overlap":    c.Overlap,
			},
		},
	}
}
