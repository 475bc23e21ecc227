// Package ollama provides a generation backend using a local Ollama server.
package ollama

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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
)

// Config holds configuration for the Ollama backend.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// MaxTokens maps to num_predict. Zero leaves the model default.
	MaxTokens int

	// Temperature controls randomness. Negative leaves the model default.
	Temperature float64

	// Timeout bounds one HTTP exchange (default: 120s).
	Timeout time.Duration

	// RetryDelay is the initial backoff between retries.
	RetryDelay time.Duration
}

// Backend answers questions through /api/chat.
type Backend struct {
	client  *chat.Client
	baseURL string
	model   string
	options *options
	prompts chat.Prompts
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// New creates an Ollama backend. Ollama needs no credentials.
func New(cfg Config) *Backend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	b := &Backend{
		client: chat.NewClient(chat.Config{
			Provider:   "ollama",
			Timeout:    cfg.Timeout,
			RetryDelay: cfg.RetryDelay,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}

	opts := &options{NumPredict: cfg.MaxTokens}
	if cfg.Temperature >= 0 {
		t := cfg.Temperature
		opts.Temperature = &t
	}
	if opts.NumPredict > 0 || opts.Temperature != nil {
		b.options = opts
	}
	return b
}

// Generate answers a conversational prompt.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	return b.chat(ctx, b.prompts.NLPSystem(), prompt)
}

// GenerateWithContext answers question from the supplied document context.
func (b *Backend) GenerateWithContext(ctx context.Context, question, contextText string) (string, error) {
	return b.chat(ctx, b.prompts.RAGSystem(contextText), question)
}

func (b *Backend) chat(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream:  false,
		Options: b.options,
	}

	var resp chatResponse
	if err := b.client.PostJSON(ctx, b.baseURL+"/api/chat", nil, reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: ollama error: %s", domain.ErrBackendFailure, resp.Error)
	}
	return resp.Message.Content, nil
}

// ModelName returns the configured model.
func (b *Backend) ModelName() string {
	return b.model
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (b *Backend) SetPromptStore(store driven.PromptStore) {
	b.prompts = chat.Prompts{Store: store}
}

// Ping validates the server is reachable by checking the /api/tags endpoint.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Get(ctx, b.baseURL+"/api/tags", nil)
}

// Close releases idle connections.
func (b *Backend) Close() error {
	b.client.CloseIdle()
	return nil
}
