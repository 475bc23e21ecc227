package generation

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/generation/breaker"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestCreateBackend(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.GenerationSettings
		wantNil   bool
		wantModel string
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.GenerationSettings{},
			wantNil:  true,
		},
		{
			name:     "openai without key is not configured",
			settings: &domain.GenerationSettings{Provider: domain.AIProviderOpenAI},
			wantNil:  true,
		},
		{
			name: "ollama provider creates backend",
			settings: &domain.GenerationSettings{
				Provider: domain.AIProviderOllama,
				Model:    "mistral",
			},
			wantModel: "mistral",
		},
		{
			name: "openai provider creates backend",
			settings: &domain.GenerationSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				BaseURL:  "https://api.poe.com/v1",
			},
			wantModel: "gpt-4o-mini",
		},
		{
			name: "anthropic provider creates backend",
			settings: &domain.GenerationSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantModel: "claude-3-5-sonnet-latest",
		},
		{
			name: "unknown provider is not configured",
			settings: &domain.GenerationSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := CreateBackend(tt.settings)
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, backend)
				return
			}
			require.NotNil(t, backend)
			assert.Equal(t, tt.wantModel, backend.ModelName())
			assert.NoError(t, backend.Close())
		})
	}
}

func newOllamaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCreateAndValidateBackend_WrapsWithBreaker(t *testing.T) {
	server := newOllamaServer(t, http.StatusOK)
	cfg := domain.DefaultAppSettings().Breaker

	backend, err := CreateAndValidateBackend(&domain.GenerationSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	}, Options{Breaker: &cfg})

	require.NoError(t, err)
	guarded, ok := backend.(*breaker.Backend)
	require.True(t, ok)
	assert.Equal(t, "closed", guarded.State())
}

func TestCreateAndValidateBackend_PingFailure(t *testing.T) {
	server := newOllamaServer(t, http.StatusInternalServerError)

	backend, err := CreateAndValidateBackend(&domain.GenerationSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	}, Options{})

	assert.Nil(t, backend)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.Contains(t, err.Error(), "settings wizard")
}

func TestCreateAndValidateBackend_SkipPing(t *testing.T) {
	backend, err := CreateAndValidateBackend(&domain.GenerationSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  "http://127.0.0.1:1",
		Timeout:  time.Second,
	}, Options{SkipPing: true})

	require.NoError(t, err)
	assert.NotNil(t, backend)
}

func TestCreateAndValidateBackend_NotConfigured(t *testing.T) {
	backend, err := CreateAndValidateBackend(&domain.GenerationSettings{}, Options{})
	assert.NoError(t, err)
	assert.Nil(t, backend)
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateGeneration(nil))
	assert.NoError(t, v.ValidateGeneration(&domain.GenerationSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  newOllamaServer(t, http.StatusOK).URL,
	}))
	assert.Error(t, v.ValidateGeneration(&domain.GenerationSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  newOllamaServer(t, http.StatusServiceUnavailable).URL,
	}))
}
