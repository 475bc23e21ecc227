package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type capturedRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
}

func newServer(t *testing.T, captured *capturedRequest, reply string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/chat/completions":
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
			_, _ = w.Write([]byte(reply))
		case "/v1/models":
			if r.Header.Get("Authorization") != "Bearer sk-test" {
				http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"data":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newBackend(t *testing.T, url, key string) *Backend {
	t.Helper()
	b, err := New(Config{
		APIKey:      key,
		BaseURL:     url + "/v1/",
		Model:       "gpt-4o",
		Temperature: 0.2,
		RetryDelay:  time.Millisecond,
	})
	require.NoError(t, err)
	return b
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	b, err := New(Config{APIKey: "k", Temperature: -1})
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, b.baseURL)
	assert.Equal(t, DefaultModel, b.ModelName())
	assert.Equal(t, DefaultMaxTokens, b.maxTokens)
	assert.InDelta(t, DefaultTemperature, b.temperature, 1e-9)
}

func TestBackend_Generate(t *testing.T) {
	var got capturedRequest
	server := newServer(t, &got, `{"choices":[{"message":{"content":"Hi there!"},"finish_reason":"stop"}]}`)
	b := newBackend(t, server.URL, "sk-test")

	answer, err := b.Generate(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "Hi there!", answer)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
}

func TestBackend_GenerateWithContext(t *testing.T) {
	var got capturedRequest
	server := newServer(t, &got, `{"choices":[{"message":{"content":"14 days."}}]}`)
	b := newBackend(t, server.URL, "sk-test")

	answer, err := b.GenerateWithContext(context.Background(), "How long do refunds take?", "[Document 1]\nRefunds take 14 days.")

	require.NoError(t, err)
	assert.Equal(t, "14 days.", answer)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[0].Content, "[Document 1]\nRefunds take 14 days.")
	assert.Equal(t, "How long do refunds take?", got.Messages[1].Content)
}

func TestBackend_ErrorBody(t *testing.T) {
	var got capturedRequest
	server := newServer(t, &got, `{"error":{"message":"model overloaded","type":"server_error"}}`)
	b := newBackend(t, server.URL, "sk-test")

	_, err := b.Generate(context.Background(), "hello")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendFailure)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestBackend_NoChoices(t *testing.T) {
	var got capturedRequest
	server := newServer(t, &got, `{"choices":[]}`)
	b := newBackend(t, server.URL, "sk-test")

	_, err := b.Generate(context.Background(), "hello")

	assert.ErrorIs(t, err, domain.ErrBackendFailure)
}

func TestBackend_Ping(t *testing.T) {
	var got capturedRequest
	server := newServer(t, &got, `{}`)

	assert.NoError(t, newBackend(t, server.URL, "sk-test").Ping(context.Background()))

	err := newBackend(t, server.URL, "sk-wrong").Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestBackend_Close(t *testing.T) {
	b, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.NoError(t, b.Close())
}
