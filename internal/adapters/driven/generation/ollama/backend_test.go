package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNew_Defaults(t *testing.T) {
	b := New(Config{Temperature: -1})

	assert.Equal(t, DefaultBaseURL, b.baseURL)
	assert.Equal(t, DefaultModel, b.ModelName())
	assert.Nil(t, b.options)
}

func TestBackend_Generate(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Hello!"},"done":true}`))
	}))
	defer server.Close()

	b := New(Config{BaseURL: server.URL, Model: "mistral", MaxTokens: 256, Temperature: 0.5})

	answer, err := b.Generate(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "Hello!", answer)
	assert.Equal(t, "mistral", got.Model)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.Equal(t, 256, got.Options.NumPredict)
	require.NotNil(t, got.Options.Temperature)
	assert.InDelta(t, 0.5, *got.Options.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "hi", got.Messages[1].Content)
}

func TestBackend_GenerateWithContext(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"14 days"},"done":true}`))
	}))
	defer server.Close()

	answer, err := New(Config{BaseURL: server.URL}).GenerateWithContext(context.Background(), "refunds?", "Refunds take 14 days.")

	require.NoError(t, err)
	assert.Equal(t, "14 days", answer)
	assert.Contains(t, got.Messages[0].Content, "Refunds take 14 days.")
}

func TestBackend_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model 'nope' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(Config{BaseURL: server.URL, Model: "nope"}).Generate(context.Background(), "hi")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendFailure)
	assert.Contains(t, err.Error(), "not found")
}

func TestBackend_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	assert.NoError(t, New(Config{BaseURL: server.URL}).Ping(context.Background()))
}
