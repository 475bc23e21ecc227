// Package anthropic provides a generation backend using the Anthropic
// messages API.
package anthropic

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
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultMaxTokens = 1024

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic backend.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// MaxTokens is required by the API (default: 1024).
	MaxTokens int

	// Temperature controls randomness. Negative omits it.
	Temperature float64

	// Timeout bounds one HTTP exchange (default: 120s).
	Timeout time.Duration

	// RequestsPerSecond throttles calls. Zero disables throttling.
	RequestsPerSecond float64

	// RetryDelay is the initial backoff between retries.
	RetryDelay time.Duration
}

// Backend answers questions through /v1/messages.
type Backend struct {
	client      *chat.Client
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature *float64
	prompts     chat.Prompts
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New creates an Anthropic backend.
func New(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
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

	b := &Backend{
		client: chat.NewClient(chat.Config{
			Provider:          "anthropic",
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			RetryDelay:        cfg.RetryDelay,
		}),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
	if cfg.Temperature >= 0 {
		t := cfg.Temperature
		b.temperature = &t
	}
	return b, nil
}

// Generate answers a conversational prompt.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	return b.send(ctx, b.prompts.NLPSystem(), prompt)
}

// GenerateWithContext answers question from the supplied document context.
func (b *Backend) GenerateWithContext(ctx context.Context, question, contextText string) (string, error) {
	return b.send(ctx, b.prompts.RAGSystem(contextText), question)
}

func (b *Backend) send(ctx context.Context, system, user string) (string, error) {
	reqBody := messagesRequest{
		Model:       b.model,
		Messages:    []messagesMessage{{Role: "user", Content: user}},
		MaxTokens:   b.maxTokens,
		System:      system,
		Temperature: b.temperature,
	}

	var resp messagesResponse
	if err := b.client.PostJSON(ctx, b.baseURL+"/v1/messages", b.headers(), reqBody, &resp); err != nil {
		return "", err
	}

	if resp.Error != nil {
		return "", fmt.Errorf("%w: anthropic error: %s", domain.ErrBackendFailure, resp.Error.Message)
	}

	// Concatenate all text content blocks
	var result strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}
	if result.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic: no response content returned", domain.ErrBackendFailure)
	}
	return result.String(), nil
}

func (b *Backend) headers() map[string]string {
	return map[string]string{
		"x-api-key":         b.apiKey,
		"anthropic-version": anthropicVersion,
	}
}

// ModelName returns the configured model.
func (b *Backend) ModelName() string {
	return b.model
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (b *Backend) SetPromptStore(store driven.PromptStore) {
	b.prompts = chat.Prompts{Store: store}
}

// Ping validates the API key by listing models.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Get(ctx, b.baseURL+"/v1/models", b.headers())
}

// Close releases idle connections.
func (b *Backend) Close() error {
	b.client.CloseIdle()
	return nil
}
