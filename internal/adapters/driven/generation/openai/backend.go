// Package openai provides a generation backend for OpenAI-compatible
// /chat/completions APIs (OpenAI, Poe, LM Studio, vLLM).
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/generation/chat"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Backend implements the interfaces.
var (
	_ driven.GenerationBackend = (*Backend)(nil)
	_ driven.PromptStoreAware  = (*Backend)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 4000
	DefaultTemperature = 0.7
)

// Config holds configuration for the OpenAI backend.
type Config struct {
	// APIKey is the bearer token (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Any OpenAI-compatible endpoint works, e.g. https://api.poe.com/v1.
	BaseURL string

	// Model is the chat model (default: gpt-4o-mini).
	Model string

	// MaxTokens caps the answer length (default: 4000).
	MaxTokens int

	// Temperature controls randomness. Negative uses the default.
	Temperature float64

	// Timeout bounds one HTTP exchange (default: 120s).
	Timeout time.Duration

	// RequestsPerSecond throttles calls. Zero disables throttling.
	RequestsPerSecond float64

	// RetryDelay is the initial backoff between retries.
	RetryDelay time.Duration
}

// Backend answers questions through /chat/completions.
type Backend struct {
	client      *chat.Client
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	prompts     chat.Prompts
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// New creates an OpenAI-compatible backend.
func New(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = DefaultTemperature
	}

	return &Backend{
		client: chat.NewClient(chat.Config{
			Provider:          "openai",
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			RetryDelay:        cfg.RetryDelay,
		}),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Generate answers a conversational prompt.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	return b.complete(ctx, b.prompts.NLPSystem(), prompt)
}

// GenerateWithContext answers question from the supplied document context.
func (b *Backend) GenerateWithContext(ctx context.Context, question, contextText string) (string, error) {
	return b.complete(ctx, b.prompts.RAGSystem(contextText), question)
}

func (b *Backend) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: b.model,
		Messages: []chatCompletionMsg{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	}

	var resp chatCompletionResponse
	if err := b.client.PostJSON(ctx, b.baseURL+"/chat/completions", b.headers(), reqBody, &resp); err != nil {
		return "", err
	}

	if resp.Error != nil {
		return "", fmt.Errorf("%w: openai error: %s", domain.ErrBackendFailure, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai: no response choices returned", domain.ErrBackendFailure)
	}
	return resp.Choices[0].Message.Content, nil
}

func (b *Backend) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + b.apiKey}
}

// ModelName returns the configured model.
func (b *Backend) ModelName() string {
	return b.model
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the backend uses the embedded default prompts.
func (b *Backend) SetPromptStore(store driven.PromptStore) {
	b.prompts = chat.Prompts{Store: store}
}

// Ping validates the API key by listing models, without running inference.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Get(ctx, b.baseURL+"/models", b.headers())
}

// Close releases idle connections.
func (b *Backend) Close() error {
	b.client.CloseIdle()
	return nil
}
